package orchestrator

import (
	"context"
	"fmt"

	"github.com/projectloom/loom/checks"
	"github.com/projectloom/loom/config"
)

// Verify runs the full check battery against the live fabric. The fabric is
// left exactly as found — verification failure is diagnostic, never a
// trigger for rollback.
func (o *Orchestrator) Verify(ctx context.Context) (checks.Scorecard, error) {
	variant, running := o.detectVariant()
	if !running {
		return checks.Scorecard{}, fmt.Errorf("no controller variant is running")
	}

	card := o.runChecks(ctx, checks.Battery(o.topo, variant.FabricSpec(), variantEndpoints(variant)))
	if !card.Ok() {
		return card, &checks.FailureError{Scorecard: card}
	}
	return card, nil
}

// variantEndpoints names the HTTP surfaces the battery probes for a variant.
func variantEndpoints(variant config.Variant) checks.Endpoints {
	return checks.Endpoints{
		API: map[string]string{
			"health API":   variant.APIURL(variant.HealthPath),
			"intents API":  variant.APIURL("/api/intents"),
			"topology API": variant.APIURL("/api/topology"),
			"stats API":    variant.APIURL("/api/stats"),
			"flows API":    variant.APIURL("/api/flows"),
		},
		IntentsURL: variant.APIURL("/api/intents"),
		WebURL:     variant.WebURL(),
	}
}
