package replication

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/assembly-sim/assembly-sim/sim"
	"github.com/assembly-sim/assembly-sim/sim/stats"
	"github.com/assembly-sim/assembly-sim/sim/trace"
)

func testConfig(iterations, parallelism int) Config {
	topo := sim.DefaultTopology(2)
	means, err := sim.MeansFromNamed(map[string]float64{
		"C1": 10.35791, "C2": 15.53690, "C3": 20.63276,
		"ws1": 4.604417, "ws2": 11.09261, "ws3": 8.79558,
	}, &topo)
	Expect(err).NotTo(HaveOccurred())
	return Config{
		Iterations:  iterations,
		MasterSeed:  12345,
		Parallelism: parallelism,
		Topology:    topo,
		Means:       means,
		Line:        sim.LineConfig{Horizon: 480, WarmUp: 60},
	}
}

func rowsJSON(o *Outcome) string {
	data, err := json.Marshal(o.Rows())
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

var _ = Describe("Runner", func() {
	Context("with a valid batch", func() {
		It("returns one result per iteration in order", func() {
			r, err := NewRunner(testConfig(6, 3))
			Expect(err).NotTo(HaveOccurred())

			out, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Results).To(HaveLen(6))
			seeds := r.Seeds()
			for i, res := range out.Results {
				Expect(res.Iteration).To(Equal(i))
				Expect(res.Seed).To(Equal(seeds[i]))
				Expect(res.Rows).To(HaveLen(6))
				Expect(res.Events).To(BeNumerically(">", 0))
				Expect(res.Trace).To(BeNil())
				for _, row := range res.Rows {
					Expect(row.Iteration).To(Equal(i))
				}
			}
			Expect(out.Trace).To(BeNil())
			Expect(out.Rows()).To(HaveLen(36))
		})

		It("produces identical rows regardless of parallelism", func() {
			serial, err := NewRunner(testConfig(8, 1))
			Expect(err).NotTo(HaveOccurred())
			parallel, err := NewRunner(testConfig(8, 8))
			Expect(err).NotTo(HaveOccurred())

			a, err := serial.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			b, err := parallel.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(rowsJSON(b)).To(MatchJSON(rowsJSON(a)))
		})

		It("gives distinct replications distinct histories", func() {
			r, err := NewRunner(testConfig(2, 2))
			Expect(err).NotTo(HaveOccurred())
			out, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Results[0].Seed).NotTo(Equal(out.Results[1].Seed))
			Expect(out.Results[0].Rows[0].ServiceTimeMean).NotTo(Equal(out.Results[1].Rows[0].ServiceTimeMean))
		})

		It("reports progress once per replication", func() {
			r, err := NewRunner(testConfig(5, 2))
			Expect(err).NotTo(HaveOccurred())
			var calls, totals []int
			r.OnProgress(func(done, total int) {
				calls = append(calls, done)
				totals = append(totals, total)
			})

			_, err = r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal([]int{1, 2, 3, 4, 5}))
			Expect(totals).To(ConsistOf(5, 5, 5, 5, 5))
		})
	})

	Context("with tracing enabled", func() {
		It("merges per-replication summaries", func() {
			cfg := testConfig(3, 2)
			cfg.Trace = trace.TraceConfig{Level: trace.TraceLevelDecisions}
			r, err := NewRunner(cfg)
			Expect(err).NotTo(HaveOccurred())

			out, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Trace).NotTo(BeNil())
			total := 0
			for _, res := range out.Results {
				Expect(res.Trace).NotTo(BeNil())
				total += res.Trace.TotalDecisions
			}
			Expect(out.Trace.TotalDecisions).To(Equal(total))
			Expect(out.Trace.TargetDistribution).To(HaveKey("w1c1"))
			Expect(out.Trace.DroppedCount).To(BeZero())
		})
	})

	Context("when the context is already cancelled", func() {
		It("returns the cancellation error", func() {
			r, err := NewRunner(testConfig(4, 2))
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			out, err := r.Run(ctx)
			Expect(out).To(BeNil())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("feeding the statistics engine", func() {
		It("yields one report value per replication", func() {
			r, err := NewRunner(testConfig(10, 4))
			Expect(err).NotTo(HaveOccurred())
			out, err := r.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			a := stats.Analyze(out.Rows(), 420, stats.DefaultCriterion())
			Expect(a.WorkstationUtilization).To(HaveLen(3))
			for _, rep := range a.WorkstationUtilization {
				Expect(rep.Replications).To(Equal(10))
				Expect(rep.Mean).To(BeNumerically(">=", 0))
				Expect(rep.Mean).To(BeNumerically("<=", 1))
			}
			Expect(a.InspectorUtilization[1].Replications).To(Equal(10))
		})
	})
})
