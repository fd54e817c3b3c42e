package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"resume-screener/internal/logger"
	"resume-screener/internal/model"

	"go.uber.org/zap"
)

// EmailConfig 邮件配置，密码只从环境变量或文件读取。
type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Username     string `mapstructure:"username" yaml:"username"`
	Password     string `mapstructure:"password" yaml:"-"`
	PasswordFile string `mapstructure:"password-file" yaml:"password_file"`
	From         string `mapstructure:"from" yaml:"from"`
	Subject      string `mapstructure:"subject" yaml:"subject"`
}

// Configured 是否具备发信所需的最小配置。
func (c EmailConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// EmailMessage 表示一封邮件。
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// EmailSender 抽象发送接口，便于测试替换。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPClient 封装 SMTP 发送。
type SMTPClient struct {
	addr string
	auth smtp.Auth
}

func NewSMTPClient(cfg EmailConfig) *SMTPClient {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPClient{addr: addr, auth: auth}
}

func (c *SMTPClient) Send(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := buildEmailData(msg)
	if err := smtp.SendMail(c.addr, c.auth, msg.From, msg.To, []byte(data)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// Notice 是发给候选人的一条筛选结果通知。
type Notice struct {
	Email   string
	Name    string
	Status  model.Status
	Score   float64
	Missing []string
}

// NoticeFromRecord 由分析记录构造通知。
func NoticeFromRecord(rec model.AnalysisRecord) Notice {
	return Notice{
		Email:   rec.Email,
		Name:    rec.Name,
		Status:  rec.Status,
		Score:   rec.Score,
		Missing: append([]string{}, rec.Missing...),
	}
}

// CandidateNotifier 给候选人发送筛选结果邮件，错误只体现在返回的状态上。
type CandidateNotifier struct {
	cfg    EmailConfig
	sender EmailSender
	logger *zap.Logger
}

// NewCandidateNotifier 创建 CandidateNotifier，sender 为空且配置完整时使用 SMTP。
func NewCandidateNotifier(cfg EmailConfig, sender EmailSender, log *zap.Logger) *CandidateNotifier {
	if sender == nil && cfg.Configured() {
		sender = NewSMTPClient(cfg)
	}
	if cfg.Subject == "" {
		cfg.Subject = "Your application status"
	}
	return &CandidateNotifier{cfg: cfg, sender: sender, logger: logger.OrNop(log)}
}

// Enabled 是否会真正尝试发送。
func (n *CandidateNotifier) Enabled() bool {
	return n != nil && n.cfg.Enabled && n.sender != nil
}

// Notify 发送一条通知并返回结果：未启用为 skipped，无邮箱为 no-destination。
func (n *CandidateNotifier) Notify(ctx context.Context, notice Notice) (status model.NotificationStatus) {
	if !n.Enabled() {
		return model.NotificationSkipped
	}
	if strings.TrimSpace(notice.Email) == "" {
		return model.NotificationNoDestination
	}

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("email sender panicked", zap.Any("panic", r))
			status = model.NotificationFailed
		}
	}()

	msg := EmailMessage{
		From:    n.cfg.From,
		To:      []string{notice.Email},
		Subject: n.cfg.Subject,
		Body:    buildBody(notice),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("candidate email failed", zap.String("email", notice.Email), zap.Error(err))
		return model.NotificationFailed
	}
	return model.NotificationSent
}

func buildBody(notice Notice) string {
	name := notice.Name
	if name == "" || name == model.UnknownName {
		name = "Candidate"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dear %s,\n\n", name))
	if notice.Status.Passed() {
		b.WriteString(fmt.Sprintf("Congratulations! Your resume has been %s with a match score of %.2f%%.\n", notice.Status, notice.Score))
		b.WriteString("Our team will contact you shortly about the next steps.\n")
	} else {
		b.WriteString(fmt.Sprintf("Thank you for applying. Your resume scored %.2f%%, which is below our current threshold.\n", notice.Score))
		if len(notice.Missing) > 0 {
			b.WriteString("Skills we were looking for:\n")
			for _, skill := range notice.Missing {
				b.WriteString(fmt.Sprintf("- %s\n", skill))
			}
		}
	}
	b.WriteString("\nBest regards,\nRecruitment Team\n")
	return b.String()
}

func buildEmailData(msg EmailMessage) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ",")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
