package bankroll

import (
	"encoding/json"
	"errors"
	"os"

	"RaceBrain/internal/fsutil"
	"RaceBrain/internal/model"
)

// LoadState reads the bankroll state from a JSON file. found is false if the file doesn't exist.
func LoadState(filePath string) (state model.BankrollState, found bool, err error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.BankrollState{}, false, nil
		}
		return model.BankrollState{}, false, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return model.BankrollState{}, true, err
	}
	return state, true, nil
}

// SaveState replaces the bankroll file with the given state.
func SaveState(filePath string, state model.BankrollState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filePath, data, 0o644)
}
