// Package notify は参加者への通知メール送信を提供する。
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Mailer はメール送信のインターフェース。
type Mailer interface {
	Send(ctx context.Context, to []string, subject, textBody, htmlBody string) error
}

// SMTPConfig はSMTPメーラーの接続設定。
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

// SMTPMailer はnet/smtpによるMailerの実装。
// STARTTLSで接続を暗号化し、PLAIN認証を行う。
type SMTPMailer struct {
	config  SMTPConfig
	timeout time.Duration
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer はSMTPMailerの新しいインスタンスを生成する。
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		config:  config,
		timeout: 30 * time.Second,
	}
}

// Send は複数の宛先に1通のメールを送信する。
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, textBody, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("宛先が指定されていません")
	}

	msg := m.buildMessage(to, subject, textBody, htmlBody)

	addr := net.JoinHostPort(m.config.Host, m.config.Port)

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("SMTPサーバーへの接続に失敗しました: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		return fmt.Errorf("SMTPクライアントの生成に失敗しました: %w", err)
	}
	defer client.Close()

	// STARTTLSが利用可能な場合は暗号化する
	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: m.config.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("STARTTLSに失敗しました: %w", err)
		}
	}

	if m.config.User != "" && m.config.Password != "" {
		auth := smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP認証に失敗しました: %w", err)
		}
	}

	if err := client.Mail(m.config.From); err != nil {
		return fmt.Errorf("送信元の設定に失敗しました: %w", err)
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("宛先の設定に失敗しました (%s): %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("メッセージ送信の開始に失敗しました: %w", err)
	}

	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("メッセージの書き込みに失敗しました: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("メッセージの完了に失敗しました: %w", err)
	}

	// Quitの失敗はメッセージ送信後のため無視する
	_ = client.Quit()

	return nil
}

// buildMessage はmultipart/alternative形式のメールメッセージを組み立てる。
func (m *SMTPMailer) buildMessage(to []string, subject, textBody, htmlBody string) string {
	var msg strings.Builder

	fromName := m.config.FromName
	if fromName == "" {
		fromName = "Event Organizer"
	}

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, m.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	boundary := fmt.Sprintf("boundary_%d", time.Now().UnixNano())
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return msg.String()
}
