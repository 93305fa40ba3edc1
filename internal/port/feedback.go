package port

import (
	"bytes"

	"github.com/rs/zerolog/log"

	"github.com/Jak3Gil/melvinport/internal/observability"
)

// FeedbackResult is a DispatchResult plus the score submitted to the
// engine. Scored is false when no expected output was provided.
type FeedbackResult struct {
	DispatchResult
	Score  float32
	Scored bool
}

// Score grades actual engine output against an expected byte string.
// It returns a value in [0, 1], where 1 is a perfect match.
//
// Empty inputs are graded before any comparison: two empty strings
// match perfectly, an empty actual against non-empty expected scores
// zero, and non-empty actual against empty expected scores 0.5 since
// producing unexpected output is only half wrong. Otherwise the score
// is the count of positionally equal bytes over the shorter length,
// divided by the longer length, so both mismatches and length
// differences cost.
func Score(actual, expected []byte) float32 {
	if len(actual) == 0 {
		if len(expected) == 0 {
			return 1
		}
		return 0
	}
	if len(expected) == 0 {
		return 0.5
	}
	if bytes.Equal(actual, expected) {
		return 1
	}

	shorter, longer := len(actual), len(expected)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	matches := 0
	for i := 0; i < shorter; i++ {
		if actual[i] == expected[i] {
			matches++
		}
	}
	return float32(matches) / float32(longer)
}

// ProcessWithFeedback dispatches pending output like Dispatch, and
// additionally grades it against expected when expected is non-nil,
// submitting the score to the engine as an error signal. A non-nil
// empty expected means "the engine should have stayed silent" and is
// graded like any other expectation; nil means no expectation, so no
// score is computed or submitted.
//
// Output is read before routing so that the score reflects what the
// engine produced even when the result is later discarded for lack of
// a route.
func (d *Dispatcher) ProcessWithFeedback(expected []byte) (FeedbackResult, error) {
	var res FeedbackResult

	size := d.eng.OutputSize()
	var actual []byte
	if size > 0 {
		defer d.eng.ClearOutput()
		actual = d.eng.ReadOutput(d.capacity)
		if len(actual) == 0 {
			return res, ErrOutputVanished
		}
	}

	if expected != nil {
		res.Score = Score(actual, expected)
		res.Scored = true
		d.eng.FeedbackError(res.Score)
		observability.RecordFeedback(res.Score)
		log.Debug().
			Float32("score", res.Score).
			Int("actual", len(actual)).
			Int("expected", len(expected)).
			Msg("feedback submitted")
	}

	if size == 0 {
		return res, nil
	}

	in := d.eng.LastInputPort()
	out, ok := d.table.Resolve(in)
	if !ok {
		observability.RecordDiscard()
		log.Debug().Uint8("in", in).Msg("no route, discarding output")
		res.Discarded = true
		return res, nil
	}

	dr, err := d.deliver(out, actual)
	res.DispatchResult = dr
	return res, err
}
