package middleware

import (
	"testing"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := AccessLog(zap.New(core))(func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("X-Request-ID", "req-1")
		ctx.SetStatusCode(fasthttp.StatusTeapot)
	})

	var req fasthttp.Request
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI("/api/v1/health")
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)

	handler(&ctx)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" || fields["path"] != "/api/v1/health" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if fields["status"] != int64(fasthttp.StatusTeapot) {
		t.Fatalf("expected status 418, got %v", fields["status"])
	}
	if fields["request_id"] != "req-1" {
		t.Fatalf("expected request id, got %v", fields["request_id"])
	}
}

func TestAccessLogWarnsOnServerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := AccessLog(zap.New(core))(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	var ctx fasthttp.RequestCtx
	ctx.Init(&fasthttp.Request{}, nil, nil)
	handler(&ctx)

	if logs.Len() != 1 || logs.All()[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warn entry, got %+v", logs.All())
	}
}
