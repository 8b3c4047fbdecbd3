package repository

import (
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ctfer-io/scenario-editor/global"
)

var (
	updatesCounter     metric.Int64Counter
	updatesCounterOnce sync.Once

	lookupsCounter     metric.Int64Counter
	lookupsCounterOnce sync.Once
)

func UpdatesCounter() metric.Int64Counter {
	updatesCounterOnce.Do(func() {
		cnt, err := global.Meter.Int64Counter("scenario_updates",
			metric.WithDescription("The number of scenario updates written back to the store"),
		)
		if err != nil {
			panic(err)
		}
		updatesCounter = cnt
	})
	return updatesCounter
}

func LookupsCounter() metric.Int64Counter {
	lookupsCounterOnce.Do(func() {
		cnt, err := global.Meter.Int64Counter("scenario_lookups",
			metric.WithDescription("The number of scenario lookups"),
		)
		if err != nil {
			panic(err)
		}
		lookupsCounter = cnt
	})
	return lookupsCounter
}

func metricChanged(changed bool) metric.AddOption {
	return metric.WithAttributes(attribute.Bool("changed", changed))
}

func metricFound(found bool) metric.AddOption {
	return metric.WithAttributes(attribute.Bool("found", found))
}
