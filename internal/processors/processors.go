// Package processors implements the three task handlers the dispatcher
// routes to by models.TaskKind (spec §4.7-§4.9): the Company Processor,
// the Source Processor (SourceDiscovery + ScrapeSource), and the Job
// Listing Processor. Each is a plain interfaces.TaskHandler function,
// registered on the queue.Dispatcher at wiring time in cmd/worker.
package processors

import (
	"context"
	"time"

	"github.com/jdubz/job-finder-worker/internal/ai"
	"github.com/jdubz/job-finder-worker/internal/enrichment/htmlfetch"
	"github.com/jdubz/job-finder-worker/internal/enrichment/search"
	"github.com/jdubz/job-finder-worker/internal/enrichment/wikipedia"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/queue"
	"github.com/jdubz/job-finder-worker/internal/scraper"
	"github.com/ternarybob/arbor"
)

// Deps bundles every collaborator a processor needs, injected once at
// startup rather than threaded through individual function arguments -
// the same wiring shape the teacher uses for its job-type executors
// (internal/jobs/processor), generalized to this domain's handlers.
type Deps struct {
	Storage   interfaces.StorageManager
	Config    interfaces.ConfigService
	Events    interfaces.EventService
	SpawnGate *queue.SpawnGate

	AI        *ai.Manager
	Wikipedia *wikipedia.Client
	Search    *search.Client
	HTMLFetch *htmlfetch.Fetcher
	Scraper   *scraper.Scraper

	Logger arbor.ILogger
}

func (d *Deps) now() time.Time { return time.Now().UTC() }

// publish is a best-effort event emit: processors never fail a task
// because telemetry couldn't be delivered.
func (d *Deps) publish(ctx context.Context, kind interfaces.EventType, payload map[string]interface{}) {
	if d.Events == nil {
		return
	}
	payload["timestamp"] = d.now()
	_ = d.Events.Publish(ctx, interfaces.Event{Type: kind, Payload: payload})
}
