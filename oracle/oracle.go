// Package oracle evaluates submitted diagnoses. The authoritative check is
// delegated to an external judge service; when that is unconfigured or
// failing, a deterministic substring match against the scenario's diagnosis
// key takes over.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"astrovet/catalog"
)

type judgeRequest struct {
	Answer        string `json:"answer"`
	Animal        string `json:"animal"`
	SpaceClue     string `json:"spaceClue"`
	VetClue       string `json:"vetClue"`
	CorrectAnswer string `json:"correctAnswer"`
}

type judgeResponse struct {
	Correct bool `json:"correct"`
}

// Client calls an external judge endpoint. It is safe for concurrent use.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Evaluate asks the judge whether the answer is medically equivalent to the
// scenario's canonical one. Any transport, status or decode problem is
// returned as an error; callers fall back to FallbackMatch.
func (c *Client) Evaluate(ctx context.Context, answer string, sc catalog.Scenario) (bool, error) {
	body, err := json.Marshal(judgeRequest{
		Answer:        answer,
		Animal:        sc.Animal,
		SpaceClue:     sc.SpaceClue,
		VetClue:       sc.VetClue,
		CorrectAnswer: sc.CorrectAnswer,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("judge returned status %d", res.StatusCode)
	}

	var verdict judgeResponse
	if err := json.NewDecoder(res.Body).Decode(&verdict); err != nil {
		return false, err
	}
	return verdict.Correct, nil
}

// FallbackMatch is the local equivalence check: case-insensitive substring
// containment between the answer and the diagnosis key, in either direction.
func FallbackMatch(answer, diagnosisKey string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	k := strings.ToLower(diagnosisKey)
	if a == "" {
		return false
	}
	return strings.Contains(a, k) || strings.Contains(k, a)
}
