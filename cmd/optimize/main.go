package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/neurarena/config"
)

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	generations := flag.Int("generations", 20, "Generations per simulation run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, *generations, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "score"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			score := evaluator.Evaluate(raw)
			n := evaluator.Evals()

			row := []string{strconv.Itoa(n), fmt.Sprintf("%.4f", score)}
			for _, v := range raw {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			best, _ := evaluator.Best()
			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(n)
			remaining := time.Duration(*maxEvals-n) * avgPerEval
			fmt.Printf("Eval %d/%d: score=%.2f (best=%.2f) | elapsed: %s, ETA: %s\n",
				n, *maxEvals, score, best, formatDuration(elapsed), formatDuration(remaining))
			return score
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, generations per run: %d\n", *seeds, *generations)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	bestScore, bestRaw := evaluator.Best()
	if bestRaw == nil {
		bestRaw = params.Denormalize(result.X)
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n",
		evaluator.Evals(), formatDuration(time.Since(startTime)))
	fmt.Printf("Best score: %.4f\n", bestScore)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestRaw[i])
	}

	bestCfg := params.Apply(baseCfg, bestRaw)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
