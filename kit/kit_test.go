package kit

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+">")
				resp, err := next(ctx, req)
				order = append(order, "<"+name)
				return resp, err
			}
		}
	}
	base := func(context.Context, any) (any, error) {
		order = append(order, "ep")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"))(base)(context.Background(), nil)
	if err != nil || resp != "ok" {
		t.Fatalf("got %v, %v", resp, err)
	}
	if got := strings.Join(order, " "); got != "a> b> ep <b <a" {
		t.Errorf("order: got %q", got)
	}
}

func TestChain_Error(t *testing.T) {
	errFail := errors.New("fail")
	ep := Chain()(func(context.Context, any) (any, error) { return nil, errFail })
	if _, err := ep(context.Background(), nil); !errors.Is(err, errFail) {
		t.Fatalf("got %v", err)
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if GetTransport(ctx) != "http" {
		t.Error("default transport should be http")
	}
	if GetTraceID(ctx) != "" || GetRequestID(ctx) != "" || GetSessionID(ctx) != "" {
		t.Error("empty context should have empty values")
	}

	ctx = WithTransport(ctx, "mcp")
	ctx = WithTraceID(ctx, "trc_1")
	ctx = WithRequestID(ctx, "req_1")
	ctx = WithSessionID(ctx, "ses_1")
	if GetTransport(ctx) != "mcp" || GetTraceID(ctx) != "trc_1" || GetRequestID(ctx) != "req_1" || GetSessionID(ctx) != "ses_1" {
		t.Error("values not round-tripped")
	}
}
