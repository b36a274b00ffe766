//go:build linux

package ebpf

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"

	"tcbench/core/profiling"
)

const (
	supported = true
	eventSize = 308
)

// Start loads exec.o and attaches the execve/execveat tracepoints. The
// programs attach system-wide; callers filter by process tree.
func (c *Controller) Start(ctx context.Context, target profiling.Target) (profiling.Session, error) {
	_ = target
	path := filepath.Join(c.cfg.dir(), "exec.o")
	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return nil, fmt.Errorf("load eBPF spec %s: %w", path, err)
	}
	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("load eBPF collection %s: %w", path, err)
	}
	eventsMap := coll.Maps["events"]
	if eventsMap == nil {
		coll.Close()
		return nil, fmt.Errorf("%s: events map not found", path)
	}
	reader, err := ringbuf.NewReader(eventsMap)
	if err != nil {
		coll.Close()
		return nil, fmt.Errorf("open ringbuf %s: %w", path, err)
	}

	s := &session{
		coll:   coll,
		reader: reader,
		events: make(chan profiling.Event, 1024),
		errs:   make(chan error, 16),
		closed: make(chan struct{}),
	}
	for _, tp := range []struct{ prog, name string }{
		{"trace_execve", "sys_enter_execve"},
		{"trace_execveat", "sys_enter_execveat"},
	} {
		l, err := attachTracepoint(coll, tp.prog, "syscalls", tp.name)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.links = append(s.links, l)
	}

	s.wg.Add(1)
	go s.readLoop(ctx)
	return s, nil
}

type session struct {
	coll   *ebpf.Collection
	reader *ringbuf.Reader
	links  []link.Link
	events chan profiling.Event
	errs   chan error
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func (s *session) Events() <-chan profiling.Event { return s.events }
func (s *session) Errors() <-chan error           { return s.errs }

func (s *session) Close() error {
	s.once.Do(func() {
		close(s.closed)
		_ = s.reader.Close()
		s.wg.Wait()
		for _, l := range s.links {
			_ = l.Close()
		}
		s.coll.Close()
		close(s.events)
		close(s.errs)
	})
	return nil
}

func (s *session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		record, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return
			}
			select {
			case s.errs <- err:
			case <-s.closed:
				return
			default:
			}
			continue
		}
		ev, err := parseEvent(record.RawSample)
		if err != nil {
			select {
			case s.errs <- err:
			default:
			}
			continue
		}
		select {
		case s.events <- ev:
		case <-s.closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// parseEvent decodes the fixed 308-byte record emitted by exec.o:
// type, pid, ppid, flags, port, family, proto, addr[16], comm[16], path[256].
func parseEvent(data []byte) (profiling.Event, error) {
	if len(data) < eventSize {
		return profiling.Event{}, fmt.Errorf("short event: %d", len(data))
	}
	return profiling.Event{
		Type: profiling.EventType(binary.LittleEndian.Uint32(data[0:4])),
		PID:  binary.LittleEndian.Uint32(data[4:8]),
		PPID: binary.LittleEndian.Uint32(data[8:12]),
		Comm: trimNull(data[36:52]),
		Path: trimNull(data[52:308]),
	}, nil
}

func trimNull(b []byte) string {
	idx := bytes.IndexByte(b, 0)
	if idx == -1 {
		idx = len(b)
	}
	return string(b[:idx])
}

func attachTracepoint(coll *ebpf.Collection, progName, category, name string) (link.Link, error) {
	prog := coll.Programs[progName]
	if prog == nil {
		return nil, fmt.Errorf("program %s not found", progName)
	}
	l, err := link.Tracepoint(category, name, prog, nil)
	if err != nil {
		return nil, fmt.Errorf("attach %s/%s: %w", category, name, err)
	}
	return l, nil
}
