package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/franbrizuelab/NPHW2/internal/model"
	"github.com/franbrizuelab/NPHW2/internal/protocol"
)

func newClientCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Interactive lobby console for smoke testing",
		Long: `client connects to the lobby and turns console commands into requests,
printing every server frame as it arrives.

Commands:
  register <user> <pass>
  login <user> <pass>
  logout
  rooms
  users
  create <name>
  join <room_id>
  invite <user>
  kick <user>
  start
  quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(server)
		},
	}

	cmd.Flags().StringVar(&server, "server", "127.0.0.1:10000", "Lobby address")
	return cmd
}

func runClient(server string) error {
	conn, err := net.Dial("tcp", server)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", server)

	// print every incoming frame
	go func() {
		for {
			var raw json.RawMessage
			if err := protocol.ReadJSON(conn, &raw); err != nil {
				if !errors.Is(err, protocol.ErrClosed) {
					fmt.Printf("<< read error: %v\n", err)
				}
				fmt.Println("<< connection closed")
				return
			}
			fmt.Printf("<< %s\n", raw)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}
		if fields[0] == "quit" {
			return nil
		}

		req, err := buildRequest(fields)
		if err != nil {
			fmt.Printf("!! %v\n", err)
		} else if err := protocol.WriteJSON(conn, req); err != nil {
			return err
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

func buildRequest(fields []string) (protocol.LobbyRequest, error) {
	marshal := func(action string, data any) (protocol.LobbyRequest, error) {
		if data == nil {
			return protocol.LobbyRequest{Action: action}, nil
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return protocol.LobbyRequest{}, err
		}
		return protocol.LobbyRequest{Action: action, Data: raw}, nil
	}

	switch fields[0] {
	case "register", "login":
		if len(fields) != 3 {
			return protocol.LobbyRequest{}, fmt.Errorf("usage: %s <user> <pass>", fields[0])
		}
		action := protocol.ActionRegister
		if fields[0] == "login" {
			action = protocol.ActionLogin
		}
		return marshal(action, protocol.Credentials{User: fields[1], Pass: fields[2]})

	case "logout":
		return marshal(protocol.ActionLogout, nil)

	case "rooms":
		return marshal(protocol.ActionListRooms, nil)

	case "users":
		return marshal(protocol.ActionListUsers, nil)

	case "create":
		if len(fields) < 2 {
			return protocol.LobbyRequest{}, fmt.Errorf("usage: create <name>")
		}
		return marshal(protocol.ActionCreateRoom, protocol.CreateRoomData{
			Name: strings.Join(fields[1:], " "),
		})

	case "join":
		if len(fields) != 2 {
			return protocol.LobbyRequest{}, fmt.Errorf("usage: join <room_id>")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return protocol.LobbyRequest{}, fmt.Errorf("room id must be a number")
		}
		return marshal(protocol.ActionJoinRoom, protocol.JoinRoomData{RoomID: model.RoomID(id)})

	case "invite":
		if len(fields) != 2 {
			return protocol.LobbyRequest{}, fmt.Errorf("usage: invite <user>")
		}
		return marshal(protocol.ActionInvite, protocol.TargetUserData{TargetUser: fields[1]})

	case "kick":
		if len(fields) != 2 {
			return protocol.LobbyRequest{}, fmt.Errorf("usage: kick <user>")
		}
		return marshal(protocol.ActionKickPlayer, protocol.TargetUserData{TargetUser: fields[1]})

	case "start":
		return marshal(protocol.ActionStartGame, nil)

	default:
		return protocol.LobbyRequest{}, fmt.Errorf("unknown command %q", fields[0])
	}
}
