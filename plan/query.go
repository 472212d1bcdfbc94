package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"
)

// Query runs a jq expression against the plan, e.g. "entries[0].fs" or ".delete | length".
// A missing leading dot is added.
func (p Plan) Query(s string) (res string, err error) {
	if !strings.HasPrefix(s, ".") {
		s = fmt.Sprintf(".%s", s)
	}
	var data interface{}
	dat, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if err = json.Unmarshal(dat, &data); err != nil {
		return "", err
	}
	query, err := gojq.Parse(s)
	if err != nil {
		return "", err
	}
	var out []string
	iter := query.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return "", err
		}
		out = append(out, render(v))
	}
	return strings.Join(out, "\n"), nil
}

// render prints scalars the way a shell script wants them and anything else as json.
func render(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, bool:
		return fmt.Sprint(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
