package v1

import (
	"github.com/mnuddindev/threadly/pkg/logger"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	Redis     *storage.RedisClient
	Logger    *logger.Logger
	Validator = utils.NewValidator()
)

// Setup hands the shared handles to the handler package.
func Setup(db *gorm.DB, rclient *storage.RedisClient, log *logger.Logger) {
	DB = db
	Redis = rclient
	Logger = log
}
