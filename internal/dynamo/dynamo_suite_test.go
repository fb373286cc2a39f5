package dynamo_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

func TestDynamo(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dynamo Suite")
}

var _ = BeforeSuite(func() {
	logrus.SetLevel(logrus.ErrorLevel)
})
