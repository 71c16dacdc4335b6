package env_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"

	"github.com/luma/chatd/internal/env"
)

var _ = Describe("LoadConfig()", func() {
	It("falls back to defaults", func() {
		config, err := env.LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
		Expect(err).To(Succeed())

		Expect(config.LogLevel).To(Equal("info"))
		Expect(config.Listeners).To(BeZero())
		Expect(config.WriteQueue).To(Equal(127))
		Expect(config.MaxLineLength).To(Equal(4096))
		Expect(config.DebugHTTP).To(BeFalse())
	})

	It("reads CHATD_ variables", func() {
		config, err := env.LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{
			"CHATD_REGION":          "ap-southeast-2",
			"CHATD_DEBUG_HTTP":      "true",
			"CHATD_LOG_LEVEL":       "debug",
			"CHATD_LISTENERS":       "4",
			"CHATD_WRITE_QUEUE":     "16",
			"CHATD_MAX_LINE_LENGTH": "512",
		}))
		Expect(err).To(Succeed())

		Expect(config.Region).To(Equal("ap-southeast-2"))
		Expect(config.DebugHTTP).To(BeTrue())
		Expect(config.LogLevel).To(Equal("debug"))
		Expect(config.Listeners).To(Equal(4))
		Expect(config.WriteQueue).To(Equal(16))
		Expect(config.MaxLineLength).To(Equal(512))
	})

	It("rejects malformed numbers", func() {
		_, err := env.LoadConfigWith(context.Background(), envconfig.MapLookuper(map[string]string{
			"CHATD_WRITE_QUEUE": "lots",
		}))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("MakeLogger()", func() {
	It("builds a logger at the requested level", func() {
		log, err := env.MakeLogger("warn")
		Expect(err).To(Succeed())
		Expect(log.Core().Enabled(zap.InfoLevel)).To(BeFalse())
		Expect(log.Core().Enabled(zap.WarnLevel)).To(BeTrue())
	})

	It("defaults to info", func() {
		log, err := env.MakeLogger("")
		Expect(err).To(Succeed())
		Expect(log.Core().Enabled(zap.DebugLevel)).To(BeFalse())
		Expect(log.Core().Enabled(zap.InfoLevel)).To(BeTrue())
	})

	It("rejects unknown levels", func() {
		_, err := env.MakeLogger("chatty")
		Expect(err).To(HaveOccurred())
	})
})
