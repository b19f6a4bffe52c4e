package health

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
)

// ExperimentService is reported SERVING while an experiment is loaded.
const ExperimentService = "dtsviewer.v1.Experiment"

type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	mu       sync.RWMutex
	services map[string]grpc_health_v1.HealthCheckResponse_ServingStatus
	watchers map[string][]chan grpc_health_v1.HealthCheckResponse_ServingStatus
}

func NewHealthServer() *HealthServer {
	return &HealthServer{
		services: make(map[string]grpc_health_v1.HealthCheckResponse_ServingStatus),
		watchers: make(map[string][]chan grpc_health_v1.HealthCheckResponse_ServingStatus),
	}
}

func (h *HealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	service := req.GetService()

	if service == "" {
		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_SERVING,
		}, nil
	}

	servingStatus, exists := h.services[service]
	if !exists {
		return nil, status.Error(codes.NotFound, "service not found")
	}

	return &grpc_health_v1.HealthCheckResponse{
		Status: servingStatus,
	}, nil
}

// Watch sends the current status and then every change until the stream ends.
func (h *HealthServer) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	response, err := h.Check(stream.Context(), req)
	if err != nil {
		return err
	}
	if err := stream.Send(response); err != nil {
		return err
	}

	updates := h.subscribe(req.GetService())
	defer h.unsubscribe(req.GetService(), updates)

	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case st := <-updates:
			if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: st}); err != nil {
				return err
			}
		}
	}
}

func (h *HealthServer) SetServingStatus(service string) {
	h.setStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
}

func (h *HealthServer) SetNotServingStatus(service string) {
	h.setStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// SetExperimentLoaded flips ExperimentService between SERVING and NOT_SERVING.
func (h *HealthServer) SetExperimentLoaded(loaded bool) {
	if loaded {
		h.SetServingStatus(ExperimentService)
		return
	}
	h.SetNotServingStatus(ExperimentService)
}

// ExperimentLoaded and ExperimentCleared let the server follow the session.
func (h *HealthServer) ExperimentLoaded(ctx context.Context, exp *experiment.Experiment) {
	h.SetExperimentLoaded(true)
}

func (h *HealthServer) ExperimentCleared(ctx context.Context, experimentID string) {
	h.SetExperimentLoaded(false)
}

func (h *HealthServer) setStatus(service string, st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.services[service]; ok && prev == st {
		return
	}
	h.services[service] = st

	for _, ch := range h.watchers[service] {
		select {
		case ch <- st:
		default:
			// slow watcher; it will see the next change
		}
	}
}

func (h *HealthServer) subscribe(service string) chan grpc_health_v1.HealthCheckResponse_ServingStatus {
	ch := make(chan grpc_health_v1.HealthCheckResponse_ServingStatus, 1)
	h.mu.Lock()
	h.watchers[service] = append(h.watchers[service], ch)
	h.mu.Unlock()
	return ch
}

func (h *HealthServer) unsubscribe(service string, ch chan grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.watchers[service]
	for i, c := range list {
		if c == ch {
			h.watchers[service] = append(list[:i], list[i+1:]...)
			break
		}
	}
}
