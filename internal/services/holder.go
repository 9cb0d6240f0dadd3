package services

import "go.uber.org/atomic"

// ServiceHolder publishes the current ConversionService.
// Readers never block; a reload swaps in a completely new service.
type ServiceHolder struct {
	current *atomic.Pointer[ConversionService]
}

// NewServiceHolder creates a holder publishing svc
func NewServiceHolder(svc *ConversionService) *ServiceHolder {
	return &ServiceHolder{current: atomic.NewPointer(svc)}
}

// Load returns the current service
func (h *ServiceHolder) Load() *ConversionService {
	return h.current.Load()
}

// Swap publishes svc and returns the previous service
func (h *ServiceHolder) Swap(svc *ConversionService) *ConversionService {
	return h.current.Swap(svc)
}
