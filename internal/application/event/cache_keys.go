package event

import "fmt"

func cacheKeyEventDetails(id string) string {
	return fmt.Sprintf("drive:event:%s", id)
}
