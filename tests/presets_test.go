package tests_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/cambium/tests/testutils"
)

func TestPresets(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "presets lists the whole catalog",
			Command:     test.Command("presets"),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("default"),
				expectContains("gentle"),
				expectContains("suno"),
				expectContains("aggressive"),
				expectContains("dynamic"),
				expectContains("podcast"),
			)),
		},
		{
			Description: "presets as json uses the configuration field names",
			Command:     test.Command("presets", "--format", "json"),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("target_lufs"),
				expectContains("true_peak"),
				expectContains("use_compression"),
			)),
		},
		{
			Description: "unknown output format fails",
			Command:     test.Command("presets", "--format", "xml"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
