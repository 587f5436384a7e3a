package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/sandlotlabs/dugout/pkg/baseball"
)

// The SQL stores keep game state snapshots as zstd-compressed JSON blobs.

func encodeState(state *baseball.GameState) ([]byte, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress game state: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

func decodeState(data []byte) (*baseball.GameState, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()

	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress game state: %v", err)
	}

	state := &baseball.GameState{}
	if err := json.Unmarshal(b, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %v", err)
	}

	return state, nil
}
