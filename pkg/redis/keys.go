package redis

import "fmt"

// ParamsKey returns the key holding one learned parameter table (string, JSON)
// Pattern: occupancy:params:{table}
func ParamsKey(table string) string {
	return fmt.Sprintf("occupancy:params:%s", table)
}
