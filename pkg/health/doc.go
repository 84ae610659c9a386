/*
Package health provides a generic hysteresis-based health status tracker,
used by pkg/embed to decide when an embedding provider should be
treated as down.

# Status Tracking

	Status.Update(result, config) is called after every probe:

	  consecutive success → Healthy = true immediately
	  consecutive failure → Healthy flips to false only once
	                         ConsecutiveFailures >= config.Retries

This avoids flapping a provider's health on a single blip: a provider
that fails once and then recovers never trips Healthy=false, while one
that fails Retries times in a row does, and recovers again only on its
next single success.

# Usage

	status := health.NewStatus()
	cfg := health.DefaultConfig()

	result := health.Result{Healthy: err == nil, CheckedAt: time.Now()}
	status.Update(result, cfg)
	if !status.Healthy {
		// stop routing embedding jobs to this provider
	}

The Checker interface and CheckType/Config types are kept generic rather
than reduced to embedding-provider-specific fields, since Config.Retries
and Config.StartPeriod apply to any probe loop that wants the same
hysteresis behavior.
*/
package health
