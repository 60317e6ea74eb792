package lox

import (
	"time"

	"github.com/podhmo/lox/object"
)

// clockBuiltin returns the seconds since the Unix epoch.
var clockBuiltin = &object.Builtin{
	Name:   "clock",
	Params: 0,
	Fn: func(ctx *object.BuiltinContext, line int, args ...object.Object) object.Object {
		return &object.Number{Value: float64(time.Now().UnixNano()) / float64(time.Second)}
	},
}
