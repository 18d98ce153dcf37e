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

// Package twilio provisions the telephony-provider side of the trunk pair:
// an elastic SIP trunk, a credential list, an origination URL pointing at
// the media platform, and the phone number association.
package twilio

// Trunk is an elastic SIP trunk.
type Trunk struct {
	SID    string
	Name   string
	Domain string
}

// CredentialList is an account-level SIP credential list.
type CredentialList struct {
	SID  string
	Name string
}

// OriginationURL routes inbound trunk traffic to a SIP endpoint.
type OriginationURL struct {
	SID     string
	Name    string
	SIPURL  string
	Enabled bool
}

// PhoneNumber is a number owned by the account.
type PhoneNumber struct {
	SID    string
	Number string
	Name   string
}

// API is the slice of the provider REST surface the provisioner needs.
// Lookup methods return what exists so every step can find-or-create.
type API interface {
	CreateTrunk(name, domain string) (*Trunk, error)
	ListTrunks() ([]Trunk, error)

	CreateCredentialList(name string) (*CredentialList, error)
	ListCredentialLists() ([]CredentialList, error)
	CreateCredential(listSID, username, password string) error
	ListCredentialUsernames(listSID string) ([]string, error)

	AssociateCredentialList(trunkSID, listSID string) error
	ListTrunkCredentialLists(trunkSID string) ([]CredentialList, error)

	CreateOriginationURL(trunkSID string, u OriginationURL) error
	ListOriginationURLs(trunkSID string) ([]OriginationURL, error)

	ListPhoneNumbers(filter string) ([]PhoneNumber, error)
	AssociatePhoneNumber(trunkSID, phoneSID string) error
	ListTrunkPhoneNumbers(trunkSID string) ([]PhoneNumber, error)
}
