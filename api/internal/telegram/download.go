package telegram

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// фото Telegram не больше 20 МБ
const maxPhotoBytes = 20 << 20

var httpc = &http.Client{Timeout: 60 * time.Second}

func download(url string) ([]byte, error) {
	resp, err := httpc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}
