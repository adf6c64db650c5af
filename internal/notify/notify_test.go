//go:build !windows

package notify

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := NewNotifier(logrus.NewEntry(logger))

	if err := n.Show("PDF 已保存", "/tmp/edited-sample.pdf"); err != nil {
		t.Fatal(err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.InfoLevel {
		t.Fatalf("entry = %+v, want info", entry)
	}
	if entry.Message != "PDF 已保存: /tmp/edited-sample.pdf" || entry.Data["app"] != AppID {
		t.Errorf("entry = %q %v", entry.Message, entry.Data)
	}
}
