// Package keywords generates ranked phrase suggestions for a lead and
// tracks where the lead's map listing places for the phrases it follows.
package keywords

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	cidParamRe = regexp.MustCompile(`[?&]cid=(\d+)`)
	cidHexRe   = regexp.MustCompile(`!1s0x[0-9a-f]+:(0x[0-9a-f]+)`)
)

// ExtractCID pulls the stable listing identifier out of a Google Maps
// URL. Two forms appear in the wild: a direct cid query parameter
// (https://maps.google.com/?cid=1234567890) and a hex pair embedded in
// the opaque data segment (!1s0x...:0x...). Returns "cid:N" with the
// decimal identifier, or "" when the URL carries neither form.
func ExtractCID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if m := cidParamRe.FindStringSubmatch(rawURL); m != nil {
		return "cid:" + m[1]
	}
	if m := cidHexRe.FindStringSubmatch(rawURL); m != nil {
		if n, err := strconv.ParseUint(m[1][2:], 16, 64); err == nil {
			return fmt.Sprintf("cid:%d", n)
		}
	}
	return ""
}
