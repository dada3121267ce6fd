package email

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"
	"text/template"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
}

func (c *Config) Send(to, subject, body string) error {
	if to == "" {
		log.Printf("[email] erro de config: destinatário (to) vazio")
		return fmt.Errorf("destinatário de e-mail vazio")
	}
	if c.Host == "" {
		log.Printf("[email] erro de config: SMTP host vazio (destinatário=%s)", to)
		return fmt.Errorf("SMTP host não configurado")
	}
	if c.FromAddr == "" {
		log.Printf("[email] erro de config: SMTP FromAddr vazio (destinatário=%s)", to)
		return fmt.Errorf("SMTP remetente (From) não configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	if err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes()); err != nil {
		log.Printf("[email] falha ao enviar para %s assunto=%q: %v", to, subject, err)
		return err
	}
	log.Printf("[email] enviado para %s assunto=%q", to, subject)
	return nil
}

// authForSend returns nil when User is empty (e.g. MailHog), so no AUTH is sent.
func (c *Config) authForSend() smtp.Auth {
	if c.User != "" {
		return smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	return nil
}

func (c *Config) SendRegistrationLink(to, fullName, registerURL string) error {
	tpl := `Olá, {{.FullName}},

Você recebeu um link para completar seu cadastro de paciente no ProntoPsi. Acesse o link abaixo para preencher seus dados:

{{.RegisterURL}}

Este link expira em 7 dias. Se você não esperava este e-mail, ignore-o.`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{"FullName": fullName, "RegisterURL": registerURL}); err != nil {
		return err
	}
	return c.Send(to, "Link de cadastro - ProntoPsi", b.String())
}
