// Command nnue-train trains an evaluation network from a file of packed
// training positions and writes the result as a loadable network file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/hailam/nnue/nnue"
	"github.com/hailam/nnue/nnue/trainer"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("nnue-train: ")

	var (
		dataPath     = flag.String("data", "", "packed training positions (.bin or .bin.zst)")
		validatePath = flag.String("validate", "", "packed validation positions (optional)")
		outPath      = flag.String("out", "nn.bin", "output network file")
		basePath     = flag.String("base", "", "existing network to continue from (optional)")
		epochs       = flag.Int("epochs", 10, "number of passes over the training data")
		batchSize    = flag.Int("batch", 1000, "mini-batch size")
		learnRate    = flag.Float64("lr", 1.0, "learning rate")
		lossName     = flag.String("loss", "elmo", "loss function: elmo, cross-entropy or winrate-mse")
		threads      = flag.Int("threads", runtime.NumCPU(), "validation worker count")
		seed         = flag.Int64("seed", 1, "random seed for init and shuffling")
	)
	flag.Parse()
	if *dataPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	loss, err := trainer.LossByName(*lossName)
	if err != nil {
		log.Fatal(err)
	}

	net := nnue.NewNetwork(nnue.NewFeatureSet())
	log.Printf("network: %s", net.StructureString())

	t := trainer.NewNetworkTrainer(net)
	if *basePath != "" {
		if err := net.Load(*basePath); err != nil {
			log.Fatal(err)
		}
		t.Dequantize()
		log.Printf("continuing from %s", *basePath)
	} else {
		t.Initialize(*seed)
	}

	samples, discarded, err := trainer.LoadSamples(*dataPath, net.FT.FeatureSet)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %d training positions from %s (%d discarded)", len(samples), *dataPath, discarded)

	var validation []trainer.Sample
	if *validatePath != "" {
		validation, discarded, err = trainer.LoadSamples(*validatePath, net.FT.FeatureSet)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("loaded %d validation positions from %s (%d discarded)", len(validation), *validatePath, discarded)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = trainer.Train(ctx, t, samples, trainer.Options{
		Epochs:      *epochs,
		BatchSize:   *batchSize,
		Concurrency: *threads,
		LearnRate:   *learnRate,
		Loss:        loss,
		Seed:        *seed,
		Validation:  validation,
		SavePath:    *outPath,
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Printf("interrupted; last checkpoint is %s", *outPath)
			return
		}
		log.Fatal(err)
	}
	log.Printf("training finished; network written to %s", *outPath)
}
