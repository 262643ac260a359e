package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ghanahealth/patient-portal/config"
	"github.com/ghanahealth/patient-portal/internal/application"
	"github.com/ghanahealth/patient-portal/internal/directory"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/auditlog"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/localstore"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/supabase"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
	"github.com/ghanahealth/patient-portal/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	localStore  *localstore.Store
	remote      *supabase.Client
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager
	cookieMgr  *helpers.CookieManager

	mailgunClient *mailer.Mailgun
	rabbitPub     *helpers.RabbitPublisher
	esClient      *elasticsearch.Client

	auditStore *auditlog.Store
	sessions   *application.SessionManager
	doctors    *directory.Service
)

func SetConfig(c *config.Config)          { cfg = c }
func GetConfig() *config.Config           { return cfg }
func SetLogger(l *logrus.Logger)          { logger = l }
func GetLogger() *logrus.Logger           { return logger }
func SetLocalStore(s *localstore.Store)   { localStore = s }
func GetLocalStore() *localstore.Store    { return localStore }
func SetRemote(c *supabase.Client)        { remote = c }
func GetRemote() *supabase.Client         { return remote }
func SetRedis(r *redis.Client)            { redisClient = r }
func GetRedis() *redis.Client             { return redisClient }
func SetGCS(s *storage.Client)            { gcsClient = s }
func GetGCS() *storage.Client             { return gcsClient }
func SetJWT(m *helpers.JWTManager)        { jwtManager = m }
func GetJWT() *helpers.JWTManager         { return jwtManager }
func SetCookies(m *helpers.CookieManager) { cookieMgr = m }
func GetCookies() *helpers.CookieManager  { return cookieMgr }

func SetMailgun(m *mailer.Mailgun)            { mailgunClient = m }
func GetMailgun() *mailer.Mailgun             { return mailgunClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetAudit(s *auditlog.Store)                { auditStore = s }
func GetAudit() *auditlog.Store                 { return auditStore }
func SetSessions(m *application.SessionManager) { sessions = m }
func GetSessions() *application.SessionManager  { return sessions }
func SetDoctors(s *directory.Service)           { doctors = s }
func GetDoctors() *directory.Service            { return doctors }
