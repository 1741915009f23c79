package trainer

import (
	"fmt"
	"math"
)

// ScoreScale maps engine score units to the winning-rate sigmoid: a
// score of ScoreScale points is roughly a 73% expected score.
const ScoreScale = 600.0

func winRate(score float64) float64 {
	return 1.0 / (1.0 + math.Exp(-score/ScoreScale))
}

// Loss maps a (shallow score, teacher score, game result) triple to a
// cost and to the gradient of that cost with respect to the shallow
// score, in the trainer's output units.
type Loss interface {
	Name() string
	Cost(shallow, deep float64, result int8) float64
	Grad(shallow, deep float64, result int8) float64
}

// WinrateMSE is the squared error between the winning rates of the two
// scores.
type WinrateMSE struct{}

func (WinrateMSE) Name() string { return "winrate-mse" }

func (WinrateMSE) Cost(shallow, deep float64, result int8) float64 {
	d := winRate(shallow) - winRate(deep)
	return d * d
}

func (WinrateMSE) Grad(shallow, deep float64, result int8) float64 {
	q, p := winRate(shallow), winRate(deep)
	return (q - p) * q * (1 - q)
}

// CrossEntropy treats the teacher's winning rate as a soft label.
type CrossEntropy struct{}

func (CrossEntropy) Name() string { return "cross-entropy" }

func (CrossEntropy) Cost(shallow, deep float64, result int8) float64 {
	q, p := winRate(shallow), winRate(deep)
	const eps = 1e-7
	return -p*math.Log(q+eps) - (1-p)*math.Log(1-q+eps)
}

func (CrossEntropy) Grad(shallow, deep float64, result int8) float64 {
	return winRate(shallow) - winRate(deep)
}

// Elmo blends the teacher's winning rate with the actual game outcome.
// Lambda weighs the teacher term; positions where the teacher score is
// already decisive (at or beyond Limit in magnitude) use Lambda2
// instead.
type Elmo struct {
	Lambda  float64
	Lambda2 float64
	Limit   float64
}

func NewElmo() Elmo {
	return Elmo{Lambda: 0.33, Lambda2: 0.33, Limit: 32000}
}

func (Elmo) Name() string { return "elmo" }

func (e Elmo) lambda(deep float64) float64 {
	if math.Abs(deep) >= e.Limit {
		return e.Lambda2
	}
	return e.Lambda
}

func (e Elmo) Cost(shallow, deep float64, result int8) float64 {
	q, p := winRate(shallow), winRate(deep)
	tt := (float64(result) + 1) / 2
	lambda := e.lambda(deep)
	const eps = 1e-7
	outcome := -tt*math.Log(q+eps) - (1-tt)*math.Log(1-q+eps)
	teacher := -p*math.Log(q+eps) - (1-p)*math.Log(1-q+eps)
	return (1-lambda)*outcome + lambda*teacher
}

func (e Elmo) Grad(shallow, deep float64, result int8) float64 {
	q, p := winRate(shallow), winRate(deep)
	tt := (float64(result) + 1) / 2
	lambda := e.lambda(deep)
	return (1-lambda)*(q-tt) + lambda*(q-p)
}

// LossByName resolves the loss functions accepted on the command line.
func LossByName(name string) (Loss, error) {
	switch name {
	case "winrate-mse":
		return WinrateMSE{}, nil
	case "cross-entropy":
		return CrossEntropy{}, nil
	case "elmo":
		return NewElmo(), nil
	}
	return nil, fmt.Errorf("unknown loss function %q", name)
}
