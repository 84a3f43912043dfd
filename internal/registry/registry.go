// Package registry maps email providers to their SMTP and IMAP hostnames.
//
// A Registry is loaded whole from a Storage, mutated in memory and written
// back whole by Save. Each provider entry carries an optional SMTP server and
// an optional IMAP server; the two are set and edited independently.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnsupportedProvider = errors.New("email provider not supported")
	ErrAlreadyExists       = errors.New("provider already exists")
	ErrNotFound            = errors.New("provider doesn't exist")
	ErrEmptyName           = errors.New("email provider can't be empty")
	ErrEmptyHost           = errors.New("email server can't be empty")
	ErrInvalidKind         = errors.New("type must be SMTP or IMAP")
)

// Kind selects one of the two server fields of an Entry.
type Kind int

const (
	KindSMTP Kind = iota + 1
	KindIMAP
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smtp":
		return KindSMTP, nil
	case "imap":
		return KindIMAP, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindSMTP:
		return "smtp"
	case KindIMAP:
		return "imap"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry is the persisted value for one provider.
type Entry struct {
	SMTPServer string `json:"smtp_server,omitempty"`
	IMAPServer string `json:"imap_server,omitempty"`
}

func (e Entry) Server(kind Kind) string {
	switch kind {
	case KindSMTP:
		return e.SMTPServer
	case KindIMAP:
		return e.IMAPServer
	default:
		return ""
	}
}

func (e *Entry) setServer(kind Kind, host string) {
	switch kind {
	case KindSMTP:
		e.SMTPServer = host
	case KindIMAP:
		e.IMAPServer = host
	}
}

type Registry struct {
	storage   Storage
	providers map[string]Entry
}

// Open loads the registry from storage. When storage also implements
// Locker, the lock is held until Close.
func Open(storage Storage) (*Registry, error) {
	if locker, ok := storage.(Locker); ok {
		if err := locker.Lock(); err != nil {
			return nil, err
		}
	}
	providers, err := storage.Load()
	if err != nil {
		closeStorage(storage)
		return nil, err
	}
	if providers == nil {
		providers = map[string]Entry{}
	}
	return &Registry{storage: storage, providers: providers}, nil
}

// Save writes the whole registry back to its storage.
func (r *Registry) Save() error {
	return r.storage.Save(r.Snapshot())
}

// Close releases the storage lock, if any. It does not save.
func (r *Registry) Close() error {
	return closeStorage(r.storage)
}

func closeStorage(storage Storage) error {
	if locker, ok := storage.(Locker); ok {
		return locker.Unlock()
	}
	return nil
}

// Lookup returns the host of the given kind registered under key.
func (r *Registry) Lookup(key string, kind Kind) (string, error) {
	entry, ok := r.providers[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, key)
	}
	host := entry.Server(kind)
	if host == "" {
		return "", fmt.Errorf("%w: %s has no %s server", ErrUnsupportedProvider, key, kind)
	}
	return host, nil
}

// LookupAddress derives the provider key from an email address and looks it up.
func (r *Registry) LookupAddress(address string, kind Kind) (string, error) {
	key, err := DeriveKey(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedProvider, err)
	}
	return r.Lookup(key, kind)
}

func (r *Registry) Entry(name string) (Entry, bool) {
	entry, ok := r.providers[name]
	return entry, ok
}

// Has reports whether name has a server of the given kind.
func (r *Registry) Has(name string, kind Kind) bool {
	entry, ok := r.providers[name]
	return ok && entry.Server(kind) != ""
}

func (r *Registry) Add(name string, kind Kind, host string) error {
	if name == "" {
		return ErrEmptyName
	}
	if r.Has(name, kind) {
		return fmt.Errorf("%w: %s already has a %s server", ErrAlreadyExists, name, kind)
	}
	if host == "" {
		return ErrEmptyHost
	}
	entry := r.providers[name]
	entry.setServer(kind, host)
	r.providers[name] = entry
	return nil
}

func (r *Registry) Edit(name string, kind Kind, host string) error {
	if !r.Has(name, kind) {
		return fmt.Errorf("%w: %s has no %s server", ErrNotFound, name, kind)
	}
	if host == "" {
		return ErrEmptyHost
	}
	entry := r.providers[name]
	entry.setServer(kind, host)
	r.providers[name] = entry
	return nil
}

// Remove deletes the provider and both of its servers.
func (r *Registry) Remove(name string) error {
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.providers, name)
	return nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.providers)
}

// Snapshot returns a copy of the provider map.
func (r *Registry) Snapshot() map[string]Entry {
	out := make(map[string]Entry, len(r.providers))
	for name, entry := range r.providers {
		out[name] = entry
	}
	return out
}
