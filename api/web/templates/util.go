package templates

import (
	"fmt"
	"net/url"

	"github.com/aouyang1/einkframe/slideshow"
	"github.com/dustin/go-humanize"
)

func photoImageURL(photo slideshow.PhotoRef) string {
	return fmt.Sprintf("/photos/%s/image", url.PathEscape(photo.ID))
}

func showURL(photo slideshow.PhotoRef) string {
	return fmt.Sprintf("/photos/%s/show", url.PathEscape(photo.ID))
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
