package presentation

import (
	"github.com/zjrosen/dispatch/internal/dispatch"
)

// KeyDTO represents one dispatch key with its live entries for presentation
type KeyDTO struct {
	Key     string     `json:"key"`
	Entries []EntryDTO `json:"entries"`
}

// EntryDTO represents one registered entry
type EntryDTO struct {
	Signature string         `json:"signature"`
	Seq       uint64         `json:"seq"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CallResultDTO represents the outcome of a dispatched call
type CallResultDTO struct {
	Key    string   `json:"key"`
	Args   []string `json:"args"`
	Result any      `json:"result"`
}

// FromEntryInfo converts a registry introspection record to a DTO
func FromEntryInfo(info dispatch.EntryInfo) EntryDTO {
	return EntryDTO{
		Signature: info.Signature,
		Seq:       info.Seq,
		Metadata:  info.Metadata,
	}
}

// FromKey builds a KeyDTO for every live entry under key.
func FromKey(reg *dispatch.Registry, key string) (KeyDTO, error) {
	infos, err := reg.Describe(dispatch.Key(key))
	if err != nil {
		return KeyDTO{}, err
	}
	entries := make([]EntryDTO, len(infos))
	for i, info := range infos {
		entries[i] = FromEntryInfo(info)
	}
	return KeyDTO{Key: key, Entries: entries}, nil
}

// FromRegistry builds KeyDTOs for every key in the registry, sorted by key.
func FromRegistry(reg *dispatch.Registry) []KeyDTO {
	keys := reg.Keys()
	dtos := make([]KeyDTO, 0, len(keys))
	for _, key := range keys {
		dto, err := FromKey(reg, key)
		if err != nil {
			continue
		}
		dtos = append(dtos, dto)
	}
	return dtos
}
