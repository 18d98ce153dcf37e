// Copyright 2025 VeloxVOIP.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package twilio

import (
	"strings"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/psrpc"
	"github.com/pkg/errors"
	"github.com/veloxvoip/telephony-agent/pkg/phone"
)

// DomainSuffix is mandatory for provider trunk termination domains.
const DomainSuffix = ".pstn.twilio.com"

// Provisioner runs the trunk setup workflow. Every step looks up existing
// resources before creating, so re-runs are safe. Any failure aborts the
// remaining steps; nothing is rolled back.
type Provisioner struct {
	api API
	log logger.Logger
}

func NewProvisioner(api API) *Provisioner {
	return &Provisioner{api: api, log: logger.GetLogger()}
}

// SetupRequest carries the operator-supplied trunk parameters.
type SetupRequest struct {
	TrunkName   string
	Domain      string // must end with DomainSuffix
	SIPURI      string // media-platform SIP endpoint, e.g. sip:sip.livekit.cloud
	Username    string
	Password    string
	PhoneNumber string // E.164; optional, skipped when empty
}

// SetupResult reports the resources after a successful run.
type SetupResult struct {
	Trunk          Trunk
	CredentialList CredentialList
	NumberAttached bool
}

func (r SetupRequest) validate() error {
	if r.TrunkName == "" {
		return psrpc.NewErrorf(psrpc.InvalidArgument, "trunk name is required")
	}
	if !strings.HasSuffix(r.Domain, DomainSuffix) {
		return psrpc.NewErrorf(psrpc.InvalidArgument, "domain name must end with %s", DomainSuffix)
	}
	if r.SIPURI == "" {
		return psrpc.NewErrorf(psrpc.InvalidArgument, "SIP URI is required")
	}
	if r.Username == "" || r.Password == "" {
		return psrpc.NewErrorf(psrpc.InvalidArgument, "SIP username and password are required")
	}
	if r.PhoneNumber != "" {
		if _, err := phone.Normalize(r.PhoneNumber); err != nil {
			return err
		}
	}
	return nil
}

// Setup provisions the provider trunk end to end: trunk, credential list,
// credential, trunk association, origination URL, phone number.
func (p *Provisioner) Setup(req SetupRequest) (*SetupResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	res := &SetupResult{}

	trunk, err := p.ensureTrunk(req)
	if err != nil {
		return nil, err
	}
	res.Trunk = *trunk

	cl, err := p.ensureCredentialList(req.TrunkName + "-credentials")
	if err != nil {
		return nil, err
	}
	res.CredentialList = *cl

	if err := p.ensureCredential(cl.SID, req.Username, req.Password); err != nil {
		return nil, err
	}
	if err := p.ensureAssociation(trunk.SID, cl); err != nil {
		return nil, err
	}
	if err := p.ensureOriginationURL(trunk.SID, req.SIPURI); err != nil {
		return nil, err
	}

	if req.PhoneNumber != "" {
		attached, err := p.ensurePhoneNumber(trunk.SID, req.PhoneNumber)
		if err != nil {
			return nil, err
		}
		res.NumberAttached = attached
	}

	p.log.Infow("provider trunk setup complete",
		"trunkSID", trunk.SID, "domain", trunk.Domain, "credentialListSID", cl.SID)
	return res, nil
}

func (p *Provisioner) ensureTrunk(req SetupRequest) (*Trunk, error) {
	trunks, err := p.api.ListTrunks()
	if err != nil {
		return nil, errors.Wrap(err, "looking up trunks")
	}
	for _, t := range trunks {
		if t.Domain == req.Domain {
			p.log.Infow("trunk exists", "trunkSID", t.SID, "domain", t.Domain)
			return &t, nil
		}
	}
	t, err := p.api.CreateTrunk(req.TrunkName, req.Domain)
	if err != nil {
		return nil, err
	}
	p.log.Infow("trunk created", "trunkSID", t.SID, "domain", t.Domain)
	return t, nil
}

func (p *Provisioner) ensureCredentialList(name string) (*CredentialList, error) {
	lists, err := p.api.ListCredentialLists()
	if err != nil {
		return nil, errors.Wrap(err, "looking up credential lists")
	}
	for _, cl := range lists {
		if cl.Name == name {
			p.log.Infow("credential list exists", "sid", cl.SID, "name", cl.Name)
			return &cl, nil
		}
	}
	cl, err := p.api.CreateCredentialList(name)
	if err != nil {
		return nil, err
	}
	p.log.Infow("credential list created", "sid", cl.SID, "name", name)
	return cl, nil
}

func (p *Provisioner) ensureCredential(listSID, username, password string) error {
	usernames, err := p.api.ListCredentialUsernames(listSID)
	if err != nil {
		return errors.Wrap(err, "looking up credentials")
	}
	for _, u := range usernames {
		if u == username {
			p.log.Infow("credential exists", "username", username)
			return nil
		}
	}
	if err := p.api.CreateCredential(listSID, username, password); err != nil {
		return err
	}
	p.log.Infow("credential added", "username", username)
	return nil
}

func (p *Provisioner) ensureAssociation(trunkSID string, cl *CredentialList) error {
	assoc, err := p.api.ListTrunkCredentialLists(trunkSID)
	if err != nil {
		return errors.Wrap(err, "looking up trunk credential lists")
	}
	for _, a := range assoc {
		if a.SID == cl.SID {
			p.log.Infow("credential list already associated", "sid", cl.SID)
			return nil
		}
	}
	if err := p.api.AssociateCredentialList(trunkSID, cl.SID); err != nil {
		return err
	}
	p.log.Infow("credential list associated", "trunkSID", trunkSID, "sid", cl.SID)
	return nil
}

func (p *Provisioner) ensureOriginationURL(trunkSID, sipURI string) error {
	urls, err := p.api.ListOriginationURLs(trunkSID)
	if err != nil {
		return errors.Wrap(err, "looking up origination URLs")
	}
	for _, u := range urls {
		if u.SIPURL == sipURI {
			p.log.Infow("origination URL exists", "sipURL", u.SIPURL)
			return nil
		}
	}
	err = p.api.CreateOriginationURL(trunkSID, OriginationURL{
		Name:    "Media platform SIP URI",
		SIPURL:  sipURI,
		Enabled: true,
	})
	if err != nil {
		return err
	}
	p.log.Infow("origination URL created", "sipURL", sipURI)
	return nil
}

func (p *Provisioner) ensurePhoneNumber(trunkSID, number string) (bool, error) {
	owned, err := p.api.ListPhoneNumbers(number)
	if err != nil {
		return false, errors.Wrap(err, "looking up phone number")
	}
	if len(owned) == 0 {
		p.log.Warnw("phone number not found in account", nil, "number", number)
		return false, nil
	}
	phoneSID := owned[0].SID

	attached, err := p.api.ListTrunkPhoneNumbers(trunkSID)
	if err != nil {
		return false, errors.Wrap(err, "looking up trunk phone numbers")
	}
	for _, n := range attached {
		if n.SID == phoneSID {
			p.log.Infow("phone number already associated", "number", number)
			return true, nil
		}
	}
	if err := p.api.AssociatePhoneNumber(trunkSID, phoneSID); err != nil {
		return false, err
	}
	p.log.Infow("phone number associated", "number", number, "trunkSID", trunkSID)
	return true, nil
}

// AccountInfo aggregates what Describe found in the provider account.
type AccountInfo struct {
	PhoneNumbers []PhoneNumber
	Trunks       []TrunkDetails
}

// TrunkDetails is a trunk with its attachments resolved.
type TrunkDetails struct {
	Trunk           Trunk
	PhoneNumbers    []PhoneNumber
	CredentialLists []CredentialList
	OriginationURLs []OriginationURL
}

// Describe collects account numbers and trunks with their attachments.
func (p *Provisioner) Describe() (*AccountInfo, error) {
	numbers, err := p.api.ListPhoneNumbers("")
	if err != nil {
		return nil, errors.Wrap(err, "listing account phone numbers")
	}
	trunks, err := p.api.ListTrunks()
	if err != nil {
		return nil, errors.Wrap(err, "listing trunks")
	}

	info := &AccountInfo{PhoneNumbers: numbers}
	for _, t := range trunks {
		d := TrunkDetails{Trunk: t}
		if d.PhoneNumbers, err = p.api.ListTrunkPhoneNumbers(t.SID); err != nil {
			return nil, errors.Wrapf(err, "listing numbers for trunk %s", t.SID)
		}
		if d.CredentialLists, err = p.api.ListTrunkCredentialLists(t.SID); err != nil {
			return nil, errors.Wrapf(err, "listing credential lists for trunk %s", t.SID)
		}
		if d.OriginationURLs, err = p.api.ListOriginationURLs(t.SID); err != nil {
			return nil, errors.Wrapf(err, "listing origination URLs for trunk %s", t.SID)
		}
		info.Trunks = append(info.Trunks, d)
	}
	return info, nil
}
