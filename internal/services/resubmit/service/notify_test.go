package service

import (
	"context"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/platform/testkit"
	"issuebridge/internal/services/resubmit/domain"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func captureNotifier(cfg MailConfig, store *ConfigStore) (*MailNotifier, *[]sentMail) {
	var sent []sentMail
	n := NewMailNotifier(cfg, store, logger.Nop())
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return n, &sent
}

var mailCfg = MailConfig{Host: "smtp.example.com", Port: 25, From: "issuebridge@example.com", AdminURL: "https://scm.example.com/admin/issue-tracker"}

func TestConfigStoreDefaultsAndSet(t *testing.T) {
	t.Parallel()
	cs := NewConfigStore(kv.NewMemory(), []string{"ops@example.com"})
	ctx := context.Background()

	cfg, err := cs.Get(ctx)
	if err != nil || len(cfg.Addresses) != 1 || cfg.Addresses[0] != "ops@example.com" {
		t.Fatalf("defaults = %+v, %v", cfg, err)
	}

	err = cs.Set(ctx, domain.Configuration{Addresses: []string{" dev@example.com ", "DEV@example.com", ""}})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	cfg, _ = cs.Get(ctx)
	if len(cfg.Addresses) != 1 || cfg.Addresses[0] != "dev@example.com" {
		t.Fatalf("saved = %+v", cfg)
	}

	// an explicit empty list replaces the defaults
	if err := cs.Set(ctx, domain.Configuration{}); err != nil {
		t.Fatalf("set empty: %v", err)
	}
	if cfg, _ = cs.Get(ctx); len(cfg.Addresses) != 0 {
		t.Fatalf("after clear = %+v", cfg)
	}
}

func TestConfigStoreRejectsInvalidAddress(t *testing.T) {
	t.Parallel()
	cs := NewConfigStore(kv.NewMemory(), nil)
	err := cs.Set(context.Background(), domain.Configuration{Addresses: []string{"not-an-address"}})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestMailNotifierSendsToConfiguredAddresses(t *testing.T) {
	t.Parallel()
	n, sent := captureNotifier(mailCfg, NewConfigStore(kv.NewMemory(), []string{"ops@example.com", "dev@example.com"}))

	c := domain.NewQueuedComment("repo-1", "jira", "ABC-42", "Referenced by changeset 9f2c1e0")
	c.Date = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n.NotifyComment(context.Background(), c)
	n.NotifyResubmit(context.Background(), "jira", 3, 1)

	if len(*sent) != 2 {
		t.Fatalf("sent %d mails", len(*sent))
	}
	first := (*sent)[0]
	if first.addr != "smtp.example.com:25" || first.from != mailCfg.From || len(first.to) != 2 {
		t.Fatalf("envelope = %+v", first)
	}
	testkit.MustContain(t, first.msg, "Subject: jira: comment for ABC-42 queued for resubmission")
	testkit.MustContain(t, first.msg, "Referenced by changeset 9f2c1e0")
	testkit.MustContain(t, first.msg, mailCfg.AdminURL)
	if !strings.Contains(first.msg, "\r\n\r\n") {
		t.Fatalf("no header separator in %q", first.msg)
	}

	second := (*sent)[1]
	testkit.MustContain(t, second.msg, "3 removed and 1 requeued")
	testkit.MustContain(t, second.msg, "Requeued:             1")
}

func TestMailNotifierSilentWithoutSetup(t *testing.T) {
	t.Parallel()
	c := domain.NewQueuedComment("repo-1", "jira", "ABC-42", "x")

	n, sent := captureNotifier(MailConfig{}, NewConfigStore(kv.NewMemory(), []string{"ops@example.com"}))
	n.NotifyComment(context.Background(), c)
	if len(*sent) != 0 {
		t.Fatalf("mailed without smtp host")
	}

	n, sent = captureNotifier(mailCfg, NewConfigStore(kv.NewMemory(), nil))
	n.NotifyComment(context.Background(), c)
	if len(*sent) != 0 {
		t.Fatalf("mailed without addresses")
	}
}

func TestMailSendGivesUpOnSilentServer(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		// accept and never greet
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	send := sendMailWithin(100 * time.Millisecond)
	done := make(chan error, 1)
	go func() {
		done <- send(ln.Addr().String(), nil, "issuebridge@example.com", []string{"ops@example.com"}, []byte("x"))
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("send succeeded against a silent server")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("send did not time out")
	}
}

func TestMailNotifierDefaultsTimeout(t *testing.T) {
	t.Parallel()
	n := NewMailNotifier(MailConfig{Host: "smtp.example.com"}, NewConfigStore(kv.NewMemory(), nil), logger.Nop())
	if n.cfg.Timeout != DefaultMailTimeout {
		t.Fatalf("timeout = %v", n.cfg.Timeout)
	}
}
