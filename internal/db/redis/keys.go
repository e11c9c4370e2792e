package redis

import "fmt"

// Key prefix for all persistence data
const keyPrefix = "tetris"

// userKey returns the Redis key for a user record
func userKey(username string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, username)
}

// gameLogsKey returns the Redis key for the list of settlement records
func gameLogsKey() string {
	return fmt.Sprintf("%s:gamelogs", keyPrefix)
}
