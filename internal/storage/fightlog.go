package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/pixil98/go-geoquest/internal/game"
)

// FightLog appends fight records to a JSON-lines file. Records are
// audit data: written once, never mutated.
type FightLog struct {
	file *os.File

	mu sync.Mutex
}

func NewFightLog(path string) (*FightLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening fight log: %w", err)
	}

	return &FightLog{file: file}, nil
}

func (l *FightLog) Append(record game.FightRecord) error {
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling fight record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("appending fight record: %w", err)
	}
	return nil
}

func (l *FightLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
