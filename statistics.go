package mnistae

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// noLoss marks a logged step without a validation loss.
var noLoss = math32.NaN()

// Statistics is the loss history of the logged steps.
type Statistics struct {
	Steps            []int
	Losses           []float32
	ValidationLosses []float32 // NaN where no validation batch was run
}

func makeStatistics() Statistics {
	return Statistics{
		Steps:            make([]int, 0, 256),
		Losses:           make([]float32, 0, 256),
		ValidationLosses: make([]float32, 0, 256),
	}
}

func (s *Statistics) update(step int, loss, validation float32) {
	s.Steps = append(s.Steps, step)
	s.Losses = append(s.Losses, loss)
	s.ValidationLosses = append(s.ValidationLosses, validation)
}

// Last returns the most recently logged step and its loss. ok is false if nothing was logged.
func (s *Statistics) Last() (step int, loss float32, ok bool) {
	if len(s.Steps) == 0 {
		return 0, 0, false
	}
	i := len(s.Steps) - 1
	return s.Steps[i], s.Losses[i], true
}

// Best returns the logged step with the lowest loss.
func (s *Statistics) Best() (step int, loss float32, ok bool) {
	for i, l := range s.Losses {
		if !ok || l < loss {
			step, loss, ok = s.Steps[i], l, true
		}
	}
	return
}

// Dump writes the history as CSV: step,loss,validation_loss. Missing validation losses are left empty.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"step", "loss", "validation_loss"}); err != nil {
		return errors.WithStack(err)
	}
	records := make([][]string, 0, len(s.Steps))
	for i, step := range s.Steps {
		record := []string{
			strconv.Itoa(step),
			strconv.FormatFloat(float64(s.Losses[i]), 'g', -1, 32),
			"",
		}
		if v := s.ValidationLosses[i]; !math32.IsNaN(v) {
			record[2] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		records = append(records, record)
	}
	// WriteAll flushes
	if err := w.WriteAll(records); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}
