// Package api implements the HTTP REST API of the collector.
//
// New(collector, sampler, alerts, simulator) returns an http.Handler that serves:
//
//	GET  /api/v1/snapshot                  current metrics snapshot
//	GET  /api/v1/health                    availability, error rate, status, uptime
//	GET  /api/v1/events?limit=N            newest retained events (default 100)
//	GET  /api/v1/sensors                   newest reading and retained count per sensor type
//	GET  /api/v1/sensors/{type}/events     newest events of one type (default 50); 400 on unknown type
//	GET  /api/v1/metrics/history           sample buffer size and sampled snapshots, oldest first
//	GET  /api/v1/alerts                    active alerts and alert history
//	DELETE /api/v1/alerts                  clear alerts and cooldowns (204)
//	POST /api/v1/reset                     new collector session, empty sample history
//	GET  /api/v1/simulator                 simulator status
//	POST /api/v1/simulator/start?rate=N    start steady generation; 409 if already running,
//	                                       400 above max_events_per_second
//	POST /api/v1/simulator/stop            stop generation and pending bursts
//	POST /api/v1/simulator/burst?count=N   schedule a burst (default burst_size); 400 above max_burst_size
//
// Every response is JSON. A wrong method gets 405; a malformed integer query
// parameter gets 400. No external HTTP framework is used.
package api
