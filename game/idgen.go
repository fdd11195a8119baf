package game

import "github.com/google/uuid"

type Idgen struct{}

func NewIdGen() Idgen {
	return Idgen{}
}

func (Idgen) Generate() string {
	return uuid.NewString()
}
