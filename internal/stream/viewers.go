package stream

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// ViewerManager tracks the last pointer position of every connected viewer.
type ViewerManager struct {
	mu       sync.RWMutex
	pointers map[string]*PointerPayload // viewerID -> pointer
}

func NewViewerManager() *ViewerManager {
	return &ViewerManager{
		pointers: make(map[string]*PointerPayload),
	}
}

func (vm *ViewerManager) Update(viewerID string, p *PointerPayload) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.pointers[viewerID] = p
}

func (vm *ViewerManager) Remove(viewerID string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	delete(vm.pointers, viewerID)
}

func (vm *ViewerManager) GetAll() map[string]*PointerPayload {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	result := make(map[string]*PointerPayload, len(vm.pointers))
	for k, v := range vm.pointers {
		result[k] = v
	}
	return result
}

func (vm *ViewerManager) StateMessage() *Message {
	payload, err := json.Marshal(ViewerStatePayload{Pointers: vm.GetAll()})
	if err != nil {
		slog.Error("marshal viewer state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypeViewerState,
		Payload: payload,
	}
}
