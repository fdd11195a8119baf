// Package catalog holds the fixed, ordered set of diagnosis scenarios and the
// per-session selection policy over them.
package catalog

import "math/rand"

// Scenario is one round's content unit: a clue for each role, the diagnosis
// key used for answer matching, and presentation metadata (animal, sprite,
// colors) that the server relays untouched.
type Scenario struct {
	Animal        string    `json:"animal"`
	SpaceClue     string    `json:"spaceClue"`
	VetClue       string    `json:"vetClue"`
	Diagnosis     string    `json:"diagnosis"`
	CorrectAnswer string    `json:"correctAnswer"`
	Sprite        string    `json:"sprite"`
	Colors        [2]string `json:"colors"`
}

var scenarios = []Scenario{
	{
		Animal:        "Leachianus Gecko",
		SpaceClue:     "Habitat humidity control malfunctioned. Environmental sensors show 12% humidity for the past 8 hours. Temperature stable at 24°C.",
		VetClue:       "Patient showing signs of severe dehydration. Skin appears wrinkled and lacks elasticity. Eyes are sunken. Patient is lethargic and unresponsive to stimuli.",
		Diagnosis:     "dehydration",
		CorrectAnswer: "Severe Dehydration",
		Sprite:        "leachianus",
		Colors:        [2]string{"#8b7355", "#6b5644"},
	},
	{
		Animal:        "Space Gecko",
		SpaceClue:     "Life support shows oxygen levels dropped 15% in the past hour. Gravity stabilizers experienced brief fluctuations.",
		VetClue:       "Patient is lethargic, breathing rapidly, and tongue appears pale. Normally very active species.",
		Diagnosis:     "hypoxia",
		CorrectAnswer: "Hypoxia (Low Oxygen)",
		Sprite:        "gecko",
		Colors:        [2]string{"#7fdb6e", "#5ba548"},
	},
	{
		Animal:        "Lunar Ferret",
		SpaceClue:     "Solar radiation sensors detected a spike during the last EVA. Airlock seals intact but UV exposure warning logged.",
		VetClue:       "Patient has redness around eyes and nose. Squinting and avoiding light. Skin appears irritated.",
		Diagnosis:     "radiation",
		CorrectAnswer: "Radiation Burn",
		Sprite:        "ferret",
		Colors:        [2]string{"#e8d4b8", "#c9a077"},
	},
	{
		Animal:        "Martian Chinchilla",
		SpaceClue:     "Temperature regulation failed in habitat module. Ambient temp rose to 35°C for 3 hours before repair.",
		VetClue:       "Patient is panting excessively, drooling, and appears disoriented. Body feels warmer than normal.",
		Diagnosis:     "heatstroke",
		CorrectAnswer: "Heat Stroke",
		Sprite:        "chinchilla",
		Colors:        [2]string{"#b8b8b8", "#8a8a8a"},
	},
	{
		Animal:        "Asteroid Parrot",
		SpaceClue:     "Cargo bay pressure dropped briefly during docking. Emergency pressurization activated after 45 seconds.",
		VetClue:       "Patient showing signs of inner ear distress, balance problems, and appears dizzy. Vocalizing in distress.",
		Diagnosis:     "barotrauma",
		CorrectAnswer: "Barotrauma (Pressure Injury)",
		Sprite:        "parrot",
		Colors:        [2]string{"#4ec9ff", "#2a9fd6"},
	},
	{
		Animal:        "Jupiter Rabbit",
		SpaceClue:     "Artificial gravity generator was offline for maintenance. Zero-G conditions for 6 hours.",
		VetClue:       "Patient experiencing muscle weakness, difficulty hopping, and seems disoriented in normal gravity.",
		Diagnosis:     "muscle atrophy",
		CorrectAnswer: "Muscle Atrophy from Zero-G",
		Sprite:        "rabbit",
		Colors:        [2]string{"#ffffff", "#d4d4d4"},
	},
	{
		Animal:        "Nebula Hedgehog",
		SpaceClue:     "Water recycling system malfunction detected. Humidity dropped to 15% station-wide.",
		VetClue:       "Patient's skin appears dry and flaky. Eyes look sunken. Refusing food but drinking excessively.",
		Diagnosis:     "dehydration",
		CorrectAnswer: "Dehydration",
		Sprite:        "hedgehog",
		Colors:        [2]string{"#8b6f47", "#5d4a2f"},
	},
	{
		Animal:        "Comet Tortoise",
		SpaceClue:     "Cosmic radiation shielding at 60% efficiency due to micrometeorite damage. Repair scheduled next week.",
		VetClue:       "Patient shows unusual lethargy, loss of appetite, and abnormal blood work indicates cellular damage.",
		Diagnosis:     "radiation sickness",
		CorrectAnswer: "Radiation Sickness",
		Sprite:        "tortoise",
		Colors:        [2]string{"#6b8e3d", "#4a6229"},
	},
	{
		Animal:        "Saturn Ring Snake",
		SpaceClue:     "HVAC system circulating recycled air. CO2 scrubbers at 80% capacity. Station at max occupancy.",
		VetClue:       "Patient is sluggish, breathing shallowly, and not responding to stimuli as quickly as normal.",
		Diagnosis:     "co2 poisoning",
		CorrectAnswer: "CO2 Poisoning",
		Sprite:        "snake",
		Colors:        [2]string{"#d4af37", "#b8941f"},
	},
	{
		Animal:        "Venus Iguana",
		SpaceClue:     "Full-spectrum UV grow lights in hydroponics bay burned out 2 days ago. Replacements delayed.",
		VetClue:       "Patient showing signs of weakness, poor appetite, and metabolic issues. Bones seem softer than normal.",
		Diagnosis:     "vitamin d deficiency",
		CorrectAnswer: "Vitamin D Deficiency",
		Sprite:        "iguana",
		Colors:        [2]string{"#7dc97d", "#5aa05a"},
	},
	{
		Animal:        "Titan Capybara",
		SpaceClue:     "Centrifuge rotation speed increased by 20% due to calibration error. Fixed after 12 hours.",
		VetClue:       "Patient appears nauseous, won't eat, and has balance problems. Seems stressed and anxious.",
		Diagnosis:     "motion sickness",
		CorrectAnswer: "Motion Sickness from Excess G-Force",
		Sprite:        "capybara",
		Colors:        [2]string{"#a67c52", "#8b6239"},
	},
}

// Len reports how many scenarios the catalog carries.
func Len() int {
	return len(scenarios)
}

// At returns the scenario at the given index. Panics on out-of-range, the
// selector never produces one.
func At(index int) Scenario {
	return scenarios[index]
}

// Selector tracks which scenario indices a single session has already seen.
// Sessions never share a Selector.
type Selector struct {
	rng  *rand.Rand
	used map[int]struct{}
}

func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{
		rng:  rng,
		used: make(map[int]struct{}),
	}
}

// First returns the fixed opening scenario (index 0) and marks it used.
func (s *Selector) First() Scenario {
	s.used[0] = struct{}{}
	return scenarios[0]
}

// Next picks uniformly among indices not yet used this session. Once every
// index has been used the set is cleared before picking, so the game never
// stalls on an exhausted catalog.
func (s *Selector) Next() Scenario {
	if len(s.used) >= len(scenarios) {
		s.used = make(map[int]struct{})
	}

	unused := make([]int, 0, len(scenarios)-len(s.used))
	for i := range scenarios {
		if _, ok := s.used[i]; !ok {
			unused = append(unused, i)
		}
	}

	pick := unused[s.rng.Intn(len(unused))]
	s.used[pick] = struct{}{}
	return scenarios[pick]
}
