package job

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

// PricePoller refreshes the price snapshot at start and then on a schedule.
type PricePoller struct {
	tracer       trace.Tracer
	priceService PriceRefresher
	pollInterval time.Duration
	schedule     string
}

type PriceRefresher interface {
	RefreshPrices(ctx context.Context) error
}

// NewPricePoller polls every pollIntervalMS milliseconds. A non-empty
// schedule (standard 5-field cron) replaces the fixed interval.
func NewPricePoller(tracer trace.Tracer, priceService PriceRefresher, pollIntervalMS int, schedule string) *PricePoller {
	return &PricePoller{
		tracer:       tracer,
		priceService: priceService,
		pollInterval: time.Duration(pollIntervalMS) * time.Millisecond,
		schedule:     schedule,
	}
}

// Start runs the initial refresh and the periodic refreshes. Blocks until ctx is cancelled.
func (p *PricePoller) Start(ctx context.Context) {
	log.Println("Price poller starting...")

	if p.schedule != "" {
		c, err := p.startCron(ctx)
		if err == nil {
			<-ctx.Done()
			<-c.Stop().Done()
			log.Println("Price poller stopped")
			return
		}
		log.Printf("invalid REFRESH_CRON %q, falling back to %v interval: %v", p.schedule, p.pollInterval, err)
	}

	go p.pollLoop(ctx, "price-table", p.pollInterval, p.refresh)

	<-ctx.Done()
	log.Println("Price poller stopped")
}

func (p *PricePoller) pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	// Run immediately on start
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("poller %s: running scheduled update", name)
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}

func (p *PricePoller) startCron(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, func() {
		log.Printf("poller price-table-cron: running scheduled update")
		if err := p.refresh(ctx); err != nil {
			log.Printf("poller price-table-cron error: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	go func() {
		if err := p.refresh(ctx); err != nil {
			log.Printf("poller price-table-cron initial run error: %v", err)
		}
	}()
	c.Start()
	log.Printf("Price refresh scheduled with cron %q", p.schedule)
	return c, nil
}

func (p *PricePoller) refresh(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "job.refresh-prices")
	defer span.End()

	return p.priceService.RefreshPrices(ctx)
}
