package module

import (
	"time"

	"issuebridge/internal/platform/config"
	"issuebridge/internal/services/resubmit/service"
)

// Options controls queue size, dispatch backlog, scheduling and mail
type Options struct {
	Capacity  int           // per tracker queue bound
	Backlog   int           // async batches waiting behind the running one
	Interval  time.Duration // scheduler period
	Addresses []string      // notification defaults until configured through the API
	Mail      service.MailConfig
}

// FromConfig reads RESUBMIT_* and SMTP_* from root
func FromConfig(root config.Conf) Options {
	rc := root.Prefix("RESUBMIT_")
	return Options{
		Capacity:  rc.MayInt("QUEUE_CAPACITY", service.DefaultCapacity),
		Backlog:   rc.MayInt("BACKLOG", service.DefaultBacklog),
		Interval:  rc.MayDuration("INTERVAL", 15*time.Minute),
		Addresses: rc.MayEmails("NOTIFY_ADDRESSES"),
		Mail:      service.MailConfigFromEnv(root, rc.MayString("ADMIN_URL", "")),
	}
}
