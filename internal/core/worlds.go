package core

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	ErrWorldAlreadyRegistered = errors.New("world already registered")
	ErrInvalidWorldName       = errors.New("invalid world name")
)

// CheckWorldName checks that name only contains lowercase letters, digits, '_', '-' and '.'.
func CheckWorldName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidWorldName)
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' && r != '.' {
			return fmt.Errorf("%w: %q", ErrInvalidWorldName, name)
		}
	}
	return nil
}

// Worlds is the registry of the program managers of a host, one per world.
// The registry can be read from any goroutine, TickAll and SaveAll should be called by the goroutine driving the ticks.
type Worlds struct {
	managers cmap.ConcurrentMap[string, *ProgramManager]
}

func NewWorlds() *Worlds {
	return &Worlds{managers: cmap.New[*ProgramManager]()}
}

func (w *Worlds) Add(manager *ProgramManager) error {
	if err := CheckWorldName(manager.World()); err != nil {
		return err
	}
	if !w.managers.SetIfAbsent(manager.World(), manager) {
		return fmt.Errorf("%w: %s", ErrWorldAlreadyRegistered, manager.World())
	}
	return nil
}

func (w *Worlds) Get(world string) (*ProgramManager, bool) {
	return w.managers.Get(world)
}

func (w *Worlds) Remove(world string) {
	w.managers.Remove(world)
}

// Names returns the names of the registered worlds in natural order.
func (w *Worlds) Names() []string {
	names := w.managers.Keys()
	slices.SortFunc(names, naturalCompare)
	return names
}

// TickAll advances the programs of every world by one tick, worlds are advanced in natural order.
// The error reports are grouped by world.
func (w *Worlds) TickAll() map[string][]ErrorReport {
	reports := map[string][]ErrorReport{}
	for _, name := range w.Names() {
		manager, ok := w.managers.Get(name)
		if !ok {
			continue
		}
		if worldReports := manager.AdvanceAll(); len(worldReports) > 0 {
			reports[name] = worldReports
		}
	}
	return reports
}

// SaveAll saves every world that has a program store, a failure does not prevent the other worlds from being saved.
func (w *Worlds) SaveAll() error {
	var result error
	for _, name := range w.Names() {
		manager, ok := w.managers.Get(name)
		if !ok {
			continue
		}
		err := manager.Save()
		if err != nil && !errors.Is(err, ErrNoProgramStore) {
			result = multierror.Append(result, fmt.Errorf("world %s: %w", name, err))
		}
	}
	return result
}
