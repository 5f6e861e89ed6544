package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/CodingWithAlice/vue/reactive"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	scenariosKey  = "scenarios"
	iterationsKey = "iterations"
	profileKey    = "profile"
)

type scenario struct {
	Name  string `yaml:"name"`
	Width int    `yaml:"width"`
	Depth int    `yaml:"depth"`
}

var defaultGrid = func() []scenario {
	ww := []int{1, 10, 100, 1_000}
	hh := []int{1, 10, 100}
	scenarios := make([]scenario, 0, len(ww)*len(hh))
	for _, w := range ww {
		for _, h := range hh {
			scenarios = append(scenarios, scenario{
				Name:  fmt.Sprintf("propagate: %d * %d", w, h),
				Width: w,
				Depth: h,
			})
		}
	}
	return scenarios
}()

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure watcher propagation through computed chains",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  scenariosKey,
				Usage: "YAML file of propagation scenarios; omit for the default grid",
			},
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Timed source writes per scenario",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this path",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	scenarios := defaultGrid
	if path := cmd.String(scenariosKey); path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		scenarios = nil
		if err := yaml.Unmarshal(contents, &scenarios); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	iters := int(cmd.Uint(iterationsKey))

	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")

	tbl := table.NewWriter()
	tbl.SetTitle("Watcher Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, sc := range scenarios {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		rt := reactive.NewRuntime(func(w *reactive.Watcher, err error) {
			log.Panic(err)
		})
		state := reactive.NewMap(rt, map[string]any{"src": 1})
		rt.Observe(state)

		for i := 0; i < sc.Width; i++ {
			last := func() int { return state.Get("src").(int) }
			for j := 0; j < sc.Depth; j++ {
				prev := last
				comp := reactive.NewWatcher(rt, func() any {
					return prev() + 1
				}, nil, &reactive.WatcherOptions{Lazy: true})
				last = func() int { return comp.Value().(int) }
			}
			leaf := last
			reactive.NewWatcher(rt, func() any {
				return leaf()
			}, nil, nil)
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			state.Set("src", state.Get("src").(int)+1)
			rt.Flush()
			tach.AddTime(time.Since(start))
		}

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				sc.Name,
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	tbl.Render()
	return nil
}
