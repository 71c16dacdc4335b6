package meta_test

import (
	"runtime"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/chatd/internal/meta"
)

var _ = Describe("Info", func() {
	It("skips fields the linker did not fill", func() {
		info := meta.Info{Version: "1.2.0", GoVersion: runtime.Version()}

		Expect(info.String()).To(Equal(
			"Version:    1.2.0\n" +
				"Go version: " + runtime.Version() + "\n"))
	})

	It("always reports the platform", func() {
		Expect(meta.GetInfo().Platform).To(Equal(runtime.GOOS + " " + runtime.GOARCH))
	})
})
