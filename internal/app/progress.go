package app

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/oshokin/media-cache/internal/service/media"
)

// progressReporter draws a progress bar per in-flight download from the service events.
type progressReporter struct {
	events      <-chan media.Event
	unsubscribe func()
	output      io.Writer
	bars        map[string]*progressbar.ProgressBar
	done        chan struct{}
}

func newProgressReporter(service media.Service, output io.Writer) *progressReporter {
	events, unsubscribe := service.Subscribe()

	reporter := &progressReporter{
		events:      events,
		unsubscribe: unsubscribe,
		output:      output,
		bars:        make(map[string]*progressbar.ProgressBar),
		done:        make(chan struct{}),
	}

	go reporter.run()

	return reporter
}

// Stop ends the subscription and waits until the buffered events were drawn.
func (r *progressReporter) Stop() {
	r.unsubscribe()
	<-r.done
}

func (r *progressReporter) run() {
	defer close(r.done)

	for event := range r.events {
		r.handle(&event)
	}

	for id, bar := range r.bars {
		_ = bar.Exit() //nolint:errcheck // Terminal output only.

		delete(r.bars, id)
	}
}

func (r *progressReporter) handle(event *media.Event) {
	switch event.Kind {
	case media.EventStateChanged:
		if event.Item == nil {
			return
		}

		bar, exists := r.bars[event.ItemID]

		switch {
		case event.Item.State == media.StateDownloading && !exists:
			r.bars[event.ItemID] = r.newBar(event.Item.Title)
		case event.Item.State != media.StateDownloading && exists:
			if event.Item.Downloaded {
				_ = bar.Finish() //nolint:errcheck // Terminal output only.
			} else {
				_ = bar.Exit() //nolint:errcheck // Terminal output only.
			}

			delete(r.bars, event.ItemID)
		}
	case media.EventProgress:
		if bar, exists := r.bars[event.ItemID]; exists {
			_ = bar.Set(event.Progress) //nolint:errcheck // Terminal output only.
		}
	case media.EventCatalogLoaded, media.EventCatalogFailed, media.EventNotification:
	}
}

func (r *progressReporter) newBar(title string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		100, //nolint:mnd // Percent.
		progressbar.OptionSetWriter(r.output),
		progressbar.OptionSetDescription(title),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40), //nolint:mnd // Bar width in columns.
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(r.output, "\n")
		}),
	)
}
