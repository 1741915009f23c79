package trainer

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Options configures a training run.
type Options struct {
	Epochs      int
	BatchSize   int
	Concurrency int
	LearnRate   float64
	Loss        Loss
	Seed        int64

	// Validation, if non-empty, is scored with the quantized network
	// after every epoch.
	Validation []Sample

	// SavePath, if set, receives the network after every epoch; the
	// final epoch is always written.
	SavePath string
}

// Train runs the gradient loop: shuffle per epoch, one Update per
// mini-batch, validation and checkpoint per epoch. The context is
// checked between batches, so cancellation loses at most one batch of
// work.
func Train(ctx context.Context, t *NetworkTrainer, samples []Sample, opt Options) error {
	if len(samples) == 0 {
		return fmt.Errorf("no training samples")
	}
	if opt.BatchSize <= 0 || opt.BatchSize > len(samples) {
		opt.BatchSize = len(samples)
	}
	rng := rand.New(rand.NewSource(opt.Seed))
	logEvery := max(1, len(samples)/opt.BatchSize/10)

	for epoch := 1; epoch <= opt.Epochs; epoch++ {
		start := time.Now()
		rng.Shuffle(len(samples), func(i, j int) {
			samples[i], samples[j] = samples[j], samples[i]
		})
		cost, batches := 0.0, 0
		for off := 0; off+opt.BatchSize <= len(samples); off += opt.BatchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			batch := samples[off : off+opt.BatchSize]
			cost += t.Update(batch, opt.Loss, opt.LearnRate)
			batches++
			if batches%logEvery == 0 {
				log.Printf("epoch %d: batch %d: cost %.6f", epoch, batches, cost/float64(batches))
			}
		}
		log.Printf("epoch %d done in %v: train cost %.6f", epoch, time.Since(start).Round(time.Millisecond), cost/float64(batches))

		if len(opt.Validation) > 0 {
			val, err := t.Cost(ctx, opt.Validation, opt.Loss, opt.Concurrency)
			if err != nil {
				return err
			}
			log.Printf("epoch %d: validation cost %.6f over %d positions", epoch, val, len(opt.Validation))
		}
		if opt.SavePath != "" {
			if err := t.SaveNetwork(opt.SavePath); err != nil {
				return fmt.Errorf("save network: %w", err)
			}
			log.Printf("epoch %d: saved %s", epoch, opt.SavePath)
		}
	}
	return nil
}
