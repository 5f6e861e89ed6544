package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/CodingWithAlice/vue/vdom"
	"github.com/CodingWithAlice/vue/vdom/memdom"
	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

var (
	repeats = flag.Int("repeats", 5, "runs per scenario, best time wins")
	seed    = flag.Uint64("seed", 1, "permutation seed")
)

type patchScenario struct {
	name string
	rows int
	next func(keys []string) []string
}

func main() {
	flag.Parse()
	log.Print("Starting patch benchmark, please wait...")
	defer log.Print("Finished patch benchmark")

	sizes := []int{100, 1_000, 10_000}
	var scenarios []patchScenario
	for _, rows := range sizes {
		scenarios = append(scenarios,
			patchScenario{
				name: "no change",
				rows: rows,
				next: func(keys []string) []string { return keys },
			},
			patchScenario{
				name: "rotate",
				rows: rows,
				next: func(keys []string) []string {
					out := make([]string, 0, len(keys))
					out = append(out, keys[len(keys)-1])
					return append(out, keys[:len(keys)-1]...)
				},
			},
			patchScenario{
				name: "shuffle",
				rows: rows,
				next: shuffle,
			},
			patchScenario{
				name: "remove tenth",
				rows: rows,
				next: func(keys []string) []string {
					out := make([]string, 0, len(keys))
					for i, k := range keys {
						if i%10 == 9 {
							continue
						}
						out = append(out, k)
					}
					return out
				},
			},
		)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"scenario", "rows", "creates", "moves", "removes", "mutations", "time",
	})

	for _, sc := range scenarios {
		plat := memdom.New()
		patcher := vdom.NewPatcher(plat)
		root := plat.CreateElement("#root")

		keys := make([]string, sc.rows)
		for i := range keys {
			keys[i] = fmt.Sprintf("row-%d", i)
		}
		nextKeys := sc.next(keys)

		best := time.Hour
		var bestCounts memdom.Counts
		for i := 0; i < *repeats; i++ {
			current := buildList(keys)
			plat.InsertBefore(root, patcher.Patch(nil, current), nil)
			plat.Reset()

			updated := buildList(nextKeys)
			start := time.Now()
			patcher.Patch(current, updated)
			duration := time.Since(start)

			if duration < best {
				best = duration
				bestCounts = plat.Counts
			}
			patcher.Patch(updated, nil)
		}

		table.Append([]string{
			sc.name,
			humanize.Comma(int64(sc.rows)),
			humanize.Comma(int64(bestCounts.CreateElement + bestCounts.CreateText)),
			humanize.Comma(int64(bestCounts.Moves)),
			humanize.Comma(int64(bestCounts.RemoveChild)),
			humanize.Comma(int64(bestCounts.Mutations())),
			fmt.Sprint(best),
		})
	}

	table.Render()
}

func buildList(keys []string) *vdom.VNode {
	ul := vdom.Element("ul")
	for _, key := range keys {
		li := vdom.Element("li", vdom.Text(key))
		li.Key = key
		ul.Children = append(ul.Children, li)
	}
	return ul
}

// shuffle permutes keys deterministically: each key's rank is the hash of
// its name and the seed, so runs are reproducible across processes.
func shuffle(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	for i := len(out) - 1; i > 0; i-- {
		j := int(xxhash.Sum64String(fmt.Sprintf("%d:%s", *seed, out[i])) % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
