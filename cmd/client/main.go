package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/log"
	"github.com/sandlotlabs/dugout/pkg/messages"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// A headless bot that joins a room, claims a team, and plays it: pitch
// when fielding, swing when batting. Two of these against each other
// will play a full game unattended.

var pitchTypes = []string{
	baseball.PitchTypeFastball,
	baseball.PitchTypeCurveball,
	baseball.PitchTypeChangeup,
}

func main() {
	serverAddr := flag.String("server", "ws://localhost:8080", "Server base URL")
	roomID := flag.String("room", "sandlot", "Room to join")
	team := flag.String("team", "home", "Team to play (home or away)")
	participantID := flag.String("participant", "bot", "Participant ID")
	actionDelay := flag.Duration("delay", 500*time.Millisecond, "Delay between actions")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *serverAddr, *roomID, *team, *participantID, *actionDelay); err != nil {
		log.Error("Bot exited: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, serverAddr, roomID, team, participantID string, actionDelay time.Duration) error {
	url := fmt.Sprintf("%s/ws/%s", serverAddr, roomID)
	log.Info("Connecting to %s as team %s", url, team)

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, &messages.JoinTeam{
		Type:          messages.TypeJoinTeam,
		Team:          team,
		ParticipantID: participantID,
	}); err != nil {
		return fmt.Errorf("failed to join team: %v", err)
	}

	pitchCount := 0
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("failed to read frame: %v", err)
		}

		msgType, err := messages.DecodeType(data)
		if err != nil {
			log.Warn("Skipping malformed frame: %v", err)
			continue
		}

		var state *baseball.GameState
		switch msgType {
		case messages.TypeInit:
			initMsg := &messages.Init{}
			if err := json.Unmarshal(data, initMsg); err != nil {
				return fmt.Errorf("failed to decode init: %v", err)
			}
			log.Info("Joined room %s as session %s (%d participants)", roomID, initMsg.SessionID, initMsg.Participants)
			state = initMsg.State
		case messages.TypeGameUpdate:
			update := &messages.GameUpdate{}
			if err := json.Unmarshal(data, update); err != nil {
				return fmt.Errorf("failed to decode game update: %v", err)
			}
			for _, event := range update.Events {
				log.Info("%s", event)
			}
			state = update.State
		case messages.TypeSync:
			syncResp := &messages.SyncResponse{}
			if err := json.Unmarshal(data, syncResp); err != nil {
				return fmt.Errorf("failed to decode sync response: %v", err)
			}
			if syncResp.Room != nil {
				state = syncResp.Room.State
			}
		case messages.TypeError:
			errMsg := &messages.Error{}
			if err := json.Unmarshal(data, errMsg); err != nil {
				return fmt.Errorf("failed to decode error: %v", err)
			}
			log.Warn("Server rejected input (%s): %s", errMsg.Code, errMsg.Message)
			if errMsg.Code == messages.ErrorCodeConflict {
				if err := wsjson.Write(ctx, conn, &messages.Sync{Type: messages.TypeSync}); err != nil {
					return fmt.Errorf("failed to request sync: %v", err)
				}
			}
			continue
		case messages.TypePlayerJoined, messages.TypePlayerLeft, messages.TypeChat:
			continue
		default:
			log.Debug("Ignoring message type %s", msgType)
			continue
		}

		if state == nil {
			continue
		}
		if state.Status == baseball.StatusComplete {
			log.Info("Final: %s %d, %s %d", state.Home.Name, state.Home.Score, state.Away.Name, state.Away.Score)
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(actionDelay):
		}

		side := baseball.Side(team)
		if state.FieldingSide() == side {
			pitchCount++
			if err := wsjson.Write(ctx, conn, &messages.Pitch{
				Type:      messages.TypePitch,
				PitchType: pitchTypes[pitchCount%len(pitchTypes)],
			}); err != nil {
				return fmt.Errorf("failed to send pitch: %v", err)
			}
		} else if state.BattingSide() == side {
			if err := wsjson.Write(ctx, conn, &messages.Swing{
				Type:  messages.TypeSwing,
				Power: 0.5,
			}); err != nil {
				return fmt.Errorf("failed to send swing: %v", err)
			}
		}
	}
}
