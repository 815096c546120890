package server

import (
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"ats-aggregator/internal/sources"
)

// RefreshHealth publishes the registry's view of each source. Supported
// sources that are disabled or misconfigured are NOT_SERVING; the overall
// service ("") is SERVING while at least one source is ready.
func (s *Server) RefreshHealth() {
	ready := map[string]bool{}
	for _, st := range s.registry.Statuses() {
		ready[st.ID] = st.Status == sources.StatusReady
	}

	overall := healthpb.HealthCheckResponse_NOT_SERVING
	for _, id := range s.registry.Supported() {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if ready[id] {
			status = healthpb.HealthCheckResponse_SERVING
			overall = healthpb.HealthCheckResponse_SERVING
		}
		s.health.SetServingStatus(id, status)
	}
	s.health.SetServingStatus("", overall)

	s.logger.Debug("gRPC health refreshed", map[string]interface{}{"overall": overall.String()})
}
