package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/utils"
)

const testLogMessageConstant = "logger_factory_test_message"

// captureStandardError redirects os.Stderr while create builds a logger and writes one warning through it.
func captureStandardError(testInstance *testing.T, create func() (*zap.Logger, error)) ([]byte, error) {
	testInstance.Helper()

	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStandardError := os.Stderr
	os.Stderr = pipeWriter
	logger, creationError := create()
	os.Stderr = originalStandardError

	if creationError == nil {
		logger.Warn(testLogMessageConstant)
		if syncError := logger.Sync(); syncError != nil {
			require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
		}
	}

	require.NoError(testInstance, pipeWriter.Close())
	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())
	return bytes.TrimSpace(capturedOutput), creationError
}

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name              string
		logLevel          utils.LogLevel
		logFormat         utils.LogFormat
		expectErrorText   string
		expectJSON        bool
		expectSuppression bool
	}{
		{name: "debug_structured", logLevel: utils.LogLevelDebug, logFormat: utils.LogFormatStructured, expectJSON: true},
		{name: "info_console", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormatConsole},
		{name: "aliases_are_case_insensitive", logLevel: utils.LogLevel("WARNING"), logFormat: utils.LogFormat("JSON"), expectJSON: true},
		{name: "error_level_hides_warnings", logLevel: utils.LogLevelError, logFormat: utils.LogFormatConsole, expectSuppression: true},
		{name: "unsupported_level", logLevel: utils.LogLevel("verbose"), logFormat: utils.LogFormatConsole, expectErrorText: "unsupported log level"},
		{name: "unsupported_format", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormat("xml"), expectErrorText: "unsupported log format"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			output, creationError := captureStandardError(subtest, func() (*zap.Logger, error) {
				return utils.NewLoggerFactory().CreateLogger(testCase.logLevel, testCase.logFormat)
			})

			if len(testCase.expectErrorText) > 0 {
				require.Error(subtest, creationError)
				require.Contains(subtest, creationError.Error(), testCase.expectErrorText)
				return
			}
			require.NoError(subtest, creationError)

			if testCase.expectSuppression {
				require.Empty(subtest, output)
				return
			}
			require.Contains(subtest, string(output), testLogMessageConstant)
			require.Equal(subtest, testCase.expectJSON, json.Valid(output))
		})
	}
}
