package tests_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

// expectContains returns a comparator verifying the output contains a substring.
func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}

// expectDetected returns a comparator verifying the console analysis flags the given check.
// Detected issues are printed as: !! [<severity>] <check>: <summary>.
func expectDetected(check string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		for line := range strings.SplitSeq(stdout, "\n") {
			if strings.Contains(line, "!!") && strings.Contains(line, "] "+check+":") {
				return
			}
		}

		testing.Log(fmt.Sprintf("expected %q to be detected but it was not in output:\n%s", check, stdout))
		testing.Fail()
	}
}

// expectFile returns a comparator verifying that a mastered file was written at path.
func expectFile(path string) test.Comparator {
	return func(_ string, testing tig.T) {
		testing.Helper()

		info, err := os.Stat(path)
		if err != nil {
			testing.Log(fmt.Sprintf("expected output file %q: %v", path, err))
			testing.Fail()

			return
		}

		if info.Size() <= 44 {
			testing.Log(fmt.Sprintf("output file %q holds no audio (%d bytes)", path, info.Size()))
			testing.Fail()
		}
	}
}

// expectNoFile returns a comparator verifying that nothing was written at path.
func expectNoFile(path string) test.Comparator {
	return func(_ string, testing tig.T) {
		testing.Helper()

		if _, err := os.Stat(path); err == nil {
			testing.Log(fmt.Sprintf("unexpected file %q", path))
			testing.Fail()
		}
	}
}
